package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/middleware/ratelimiter"
	"github.com/practix/practix/shared/utils"
)

func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return RateLimitWithHandler(rl, getIdentity, func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorAndStatusCode(w, errors.RateLimit("Rate limit exceeded, try again later"))
	})
}

// RateLimitWithHandler is RateLimit with a custom response for limited requests.
func RateLimitWithHandler(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error), onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				w.Header().Set("Retry-After", "1")
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext keys limits by the authenticated caller.
// Possible only after NeedAuth.
func GetUserIDFromContext(r *http.Request) (string, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return "", errors.Auth("Please sign-in")
	}
	return "user_" + user.Id, nil
}

// GetIP trusts only RemoteAddr.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", errors.Validation(fmt.Sprintf("invalid IP address: %s", ip))
	}
	return ip, nil
}
