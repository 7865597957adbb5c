package middleware

import (
	"net/http"

	"github.com/practix/practix/shared/csrf"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
	"github.com/practix/practix/shared/utils"
)

const (
	csrfCookieName = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
)

// CSRF implements the double-submit cookie check for browsers that
// authenticate with the accessToken cookie. The token cookie is readable by
// scripts so the client can echo it in the X-CSRF-Token header. Requests that
// carry an Authorization header are not cookie-authenticated and skip the check.
func CSRF(secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				token, err := csrf.GenerateToken()
				if err != nil {
					utils.WriteErrorAndStatusCode(w, err)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   86400,
				})
				cookie = &http.Cookie{Name: csrfCookieName}
			}

			if isSafeMethod(r.Method) || !cookieAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !csrf.ValidateToken(cookie.Value, r.Header.Get(CSRFHeader)) {
				logger.Log.Warn("csrf token mismatch", "path", r.URL.Path)
				utils.WriteErrorAndStatusCode(w, errors.Permission("CSRF token missing or invalid"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func cookieAuthenticated(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" {
		return false
	}
	_, err := r.Cookie(accessTokenCookie)
	return err == nil
}
