package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"seedorders/internal/dto"
)

type contextKey string

const (
	scopeKey  contextKey = "scope"
	userIDKey contextKey = "userId"
)

type Scope string

const (
	ScopeAnon    Scope = "anon"
	ScopeService Scope = "service"
)

// Authenticator checks the project API key on every request and resolves the
// calling user from an optional bearer token.
type Authenticator struct {
	anonKey    string
	serviceKey string
	tokens     *TokenService
	logger     *zap.Logger
}

func NewAuthenticator(anonKey, serviceKey string, tokens *TokenService, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		anonKey:    anonKey,
		serviceKey: serviceKey,
		tokens:     tokens,
		logger:     logger,
	}
}

// APIKey rejects requests whose apikey header (or query parameter) matches neither key. A valid
// bearer token attaches the user id to the request context; an invalid one
// is rejected.
func (a *Authenticator) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("apikey")
		if key == "" {
			// browsers cannot set headers on a websocket handshake
			key = r.URL.Query().Get("apikey")
		}

		var scope Scope
		switch key {
		case "":
			writeUnauthorized(w, "missing apikey header")
			return
		case a.serviceKey:
			scope = ScopeService
		case a.anonKey:
			scope = ScopeAnon
		default:
			a.logger.Warn("rejected request with unknown apikey", zap.String("path", r.URL.Path))
			writeUnauthorized(w, "invalid apikey")
			return
		}

		ctx := context.WithValue(r.Context(), scopeKey, scope)

		if header := r.Header.Get("Authorization"); header != "" {
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header || raw == "" {
				writeUnauthorized(w, "authorization header must be a bearer token")
				return
			}
			// The service key doubles as a bearer credential for server-side callers.
			if raw != a.serviceKey {
				userID, err := a.tokens.Subject(raw)
				if err != nil {
					a.logger.Debug("rejected bearer token", zap.Error(err))
					writeUnauthorized(w, err.Error())
					return
				}
				ctx = WithUserID(ctx, userID)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireService only lets requests made with the service key through.
func RequireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ScopeFromContext(r.Context()) != ScopeService {
			writeUnauthorized(w, "service credential required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser only lets requests carrying a valid user token through.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			writeUnauthorized(w, "user access token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ScopeFromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeKey).(Scope)
	return scope
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   "UNAUTHORIZED",
		Message: message,
	})
}
