package gateway

import "net/http"

// SecurityHeaders is middleware that sets standard security response headers
// on gateway-origin responses: the API, login and logout, and the login page
// the gate substitutes. Proxied upstream content is not routed through it;
// the proxy manages embedding policy for relayed assets.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		next.ServeHTTP(w, r)
	})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}
