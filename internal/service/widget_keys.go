package service

import (
	"context"
	"strings"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// WidgetKeyRegistry maps widget keys to the widget and business they belong
// to. Keys are provisioned out of band and loaded from configuration.
type WidgetKeyRegistry struct {
	keys map[string]widgetIdentity
}

type widgetIdentity struct {
	widgetID   string
	businessID string
}

// ParseWidgetKeys builds a registry from a comma separated list of
// "key:businessID:widgetID" entries. Malformed entries are rejected.
func ParseWidgetKeys(spec string) (*WidgetKeyRegistry, error) {
	reg := &WidgetKeyRegistry{keys: make(map[string]widgetIdentity)}
	if strings.TrimSpace(spec) == "" {
		return reg, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "widget key entries must be key:businessID:widgetID")
		}
		reg.keys[parts[0]] = widgetIdentity{businessID: parts[1], widgetID: parts[2]}
	}
	return reg, nil
}

// Empty reports whether the registry has no keys configured.
func (r *WidgetKeyRegistry) Empty() bool {
	return len(r.keys) == 0
}

// ValidateWidgetKey resolves a widget key to its widget and business IDs.
func (r *WidgetKeyRegistry) ValidateWidgetKey(ctx context.Context, token string) (string, string, error) {
	identity, ok := r.keys[token]
	if !ok {
		return "", "", domain.NewDomainError(domain.ErrCodeValidation, "unknown widget key")
	}
	return identity.widgetID, identity.businessID, nil
}
