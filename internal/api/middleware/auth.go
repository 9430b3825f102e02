package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/relaydesk/relaydesk/internal/api"
)

type contextKey string

const (
	WidgetIDKey   contextKey = "widget_id"
	BusinessIDKey contextKey = "business_id"
)

// AuthValidator resolves a widget key to the widget and business it belongs to.
type AuthValidator interface {
	ValidateWidgetKey(ctx context.Context, token string) (widgetID, businessID string, err error)
}

// WidgetKeyAuth authenticates requests with a widget key carried as a Bearer
// token and stores the resolved identity in the request context.
func WidgetKeyAuth(validator AuthValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			widgetID, businessID, err := validator.ValidateWidgetKey(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid widget key")
				return
			}

			ctx := context.WithValue(r.Context(), WidgetIDKey, widgetID)
			ctx = context.WithValue(ctx, BusinessIDKey, businessID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetWidgetID returns the authenticated widget ID from context.
func GetWidgetID(ctx context.Context) string {
	widgetID, _ := ctx.Value(WidgetIDKey).(string)
	return widgetID
}

// GetBusinessID returns the authenticated business ID from context.
func GetBusinessID(ctx context.Context) string {
	businessID, _ := ctx.Value(BusinessIDKey).(string)
	return businessID
}
