package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"platforma-zasobow/internal/auth"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityContextKey = contextKey("identity")
const tokenContextKey = contextKey("token")

// AuthMiddleware resolves the caller's identity from the Authorization
// header: signature and expiry come from the token itself, the revocation
// check and the admin flag come from the store. The admin flag is looked up
// per request on purpose, so role changes apply without a re-login.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		tokenString := headerParts[1]

		claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				http.Error(w, "Token has expired, log in again", http.StatusUnauthorized)
			} else {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
			}
			return
		}

		revoked, err := s.store.IsTokenRevoked(r.Context(), tokenString)
		if err != nil {
			log.Printf("ERROR: revocation check failed: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if revoked {
			http.Error(w, "Token has been revoked, log in again", http.StatusUnauthorized)
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			log.Printf("ERROR: user lookup for token subject %d failed: %v", claims.UserID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			// valid signature, but the account was deleted after issuance
			http.Error(w, "User no longer exists", http.StatusUnauthorized)
			return
		}

		identity := &auth.Identity{
			UserID:  user.ID,
			Email:   user.Email,
			IsAdmin: user.PlatformAdmin,
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		ctx = context.WithValue(ctx, tokenContextKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(identityContextKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}

func GetTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenContextKey).(string); ok {
		return token
	}
	return ""
}
