package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"ward-pickup-service/internal/platform/obs"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const principalKey ctxKey = "principal_id"

// Claims carried by access tokens. UserID wins over the standard subject.
// Role is informational only; the account record decides what a caller may do.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) principalID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// WithPrincipalID stores the authenticated account id on ctx.
func WithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalKey, id)
}

// PrincipalID returns the authenticated account id, if any.
func PrincipalID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey).(string)
	return id, ok && id != ""
}

// Middleware verifies an HS256 bearer token and puts its principal id on the
// request context. Missing or invalid tokens get a 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "missing bearer token", nil)
				return
			}

			claims := &Claims{}
			tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					unauthorized(w, r, "token expired", err)
					return
				}
				unauthorized(w, r, "invalid token", err)
				return
			}

			id := claims.principalID()
			if id == "" {
				unauthorized(w, r, "token has no subject", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipalID(r.Context(), id)))
		})
	}
}

// SignToken issues an HS256 token for userID. Used by local tooling and tests;
// production tokens come from the identity service.
func SignToken(secret []byte, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string, err error) {
	entry := obs.FromContext(r.Context()).WithField("path", r.URL.Path)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info("request rejected: " + msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": "unauthorized", "message": msg})
}
