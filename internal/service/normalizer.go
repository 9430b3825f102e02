package service

import "strings"

// phraseExpansion rewrites an ambiguous multi-word phrase into a wider set
// of synonymous terms so short colloquial questions still hit the right
// fragments. At most one expansion is applied per query, first match wins.
type phraseExpansion struct {
	phrase    string
	expansion string
}

var phraseExpansions = []phraseExpansion{
	{"what time", "what time opening hours schedule when open"},
	{"how late", "how late closing hours open until"},
	{"how much", "how much price cost fee rate"},
	{"how long", "how long duration delivery time turnaround"},
	{"where are you", "where are you located location address directions"},
}

// typoCorrections maps frequently misspelled tokens from real widget
// traffic to their corrected forms.
var typoCorrections = map[string]string{
	"adress":    "address",
	"recieve":   "receive",
	"shiping":   "shipping",
	"delivry":   "delivery",
	"avaliable": "available",
	"openning":  "opening",
	"cancelation": "cancellation",
	"garantee":  "guarantee",
	"payed":     "paid",
	"refound":   "refund",
	"wether":    "whether",
	"appointement": "appointment",
}

// QueryNormalizer cleans up end-user questions before they are embedded.
type QueryNormalizer struct{}

// NewQueryNormalizer creates a new QueryNormalizer instance
func NewQueryNormalizer() *QueryNormalizer {
	return &QueryNormalizer{}
}

// Normalize expands the first matching ambiguous phrase and corrects known
// typos token by token. It is pure and never fails; a query with nothing
// to fix comes back unchanged.
func (n *QueryNormalizer) Normalize(query string) string {
	normalized := expandPhrase(query)

	tokens := strings.Fields(normalized)
	changed := false
	for i, token := range tokens {
		word, punct := splitTrailingPunct(token)
		if corrected, ok := typoCorrections[strings.ToLower(word)]; ok {
			tokens[i] = corrected + punct
			changed = true
		}
	}
	if !changed {
		return normalized
	}
	return strings.Join(tokens, " ")
}

// expandPhrase applies at most one phrase expansion. Matching is
// case-insensitive but the replacement happens on the original string so
// the rest of the query keeps its casing.
func expandPhrase(query string) string {
	lower := strings.ToLower(query)
	for _, pe := range phraseExpansions {
		idx := strings.Index(lower, pe.phrase)
		if idx < 0 {
			continue
		}
		return query[:idx] + pe.expansion + query[idx+len(pe.phrase):]
	}
	return query
}

func splitTrailingPunct(token string) (word, punct string) {
	end := len(token)
	for end > 0 {
		switch token[end-1] {
		case '.', ',', '?', '!', ';', ':':
			end--
		default:
			return token[:end], token[end:]
		}
	}
	return token[:end], token[end:]
}
