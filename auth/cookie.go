package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the fixed name of the session cookie.
const CookieName = "subtrack_session"

// cookieTTL is the passive expiry of an issued credential.
const cookieTTL = 30 * 24 * time.Hour

// WriteCookie sets the session cookie carrying the credential.
func WriteCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(cookieTTL / time.Second),
	})
}

// ClearCookie instructs the client to drop the session cookie immediately
// (serialized as Max-Age=0).
func ClearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// TokenFromRequest extracts the presented credential from the request's
// session cookie. Returns "" when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// Authenticated reports whether the request carries a valid credential.
func (a *Authenticator) Authenticated(r *http.Request) bool {
	token := TokenFromRequest(r)
	return token != "" && a.Validate(token)
}

// requestIsSecure reports whether the request arrived over TLS, directly or
// behind a terminating proxy. The Secure cookie attribute follows it so the
// credential never rides plaintext transport in production while local
// plain-HTTP development still works.
func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
