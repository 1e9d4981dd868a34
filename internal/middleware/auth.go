package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Claims are issued by the identity service; this server only verifies them.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   domain.Role
}

// NewPrincipalContext returns ctx carrying p.
func NewPrincipalContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, claimsKey, p)
}

// GetPrincipal extracts the authenticated caller from context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(claimsKey).(Principal)
	return p, ok
}

// Auth verifies an HS256 bearer token and stores the caller in the request
// context.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			p, err := ParseToken(secret, token)
			if err != nil {
				slog.Debug("token rejected", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(NewPrincipalContext(r.Context(), p)))
		})
	}
}

// RequireAdmin rejects callers without an admin role. It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !p.Role.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperAdmin admits only super admins. It must run after Auth.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if p.Role != domain.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, "super admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// ParseToken validates token against secret and returns its principal.
func ParseToken(secret []byte, token string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", errUnexpectedSigningMethod, t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("token user id: %w", err)
	}
	role := claims.Role
	if role == "" {
		role = domain.RoleUser
	}
	return Principal{UserID: id, Role: role}, nil
}
