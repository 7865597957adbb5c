package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	jwt_internal "github.com/practix/practix/shared/jwt"
	"github.com/practix/practix/shared/utils"
)

// Key to store the resolved user in the request context
type key int

const UserClaimsKey key = 0

const accessTokenCookie = "accessToken"

// Auth resolves the caller through the identity provider adapter.
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth rejects requests without a resolvable identity with an AuthError.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the user when a valid token is present, but never rejects.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := a.extractUser(r); err == nil {
				ctx := context.WithValue(r.Context(), UserClaimsKey, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractUser reads the token from the accessToken cookie (browsers) or the
// Authorization header (API clients).
func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	var tokenString string
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, errors.Auth("Please sign-in")
	}

	userId, err := a.jwtService.Resolve(tokenString)
	if err != nil {
		return nil, err
	}
	return &domain.User{Id: userId}, nil
}

// GetUserFromContext retrieves the user from the context, nil when absent.
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// CallerId returns the resolved caller id, or "" when the request is anonymous.
func CallerId(r *http.Request) domain.UserId {
	if user := GetUserFromContext(r); user != nil {
		return user.Id
	}
	return ""
}
