package gateway

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/panpapadopoulos/subtrack/auth"
)

//go:embed login.html
var loginHTML string

var loginTemplate = template.Must(template.New("login").Parse(loginHTML))

// Login handles POST /login. A correct password redirects to the root with
// the session cookie set; a wrong one re-renders the login form with an
// error message and no cookie.
func (g *Gateway) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		g.renderLogin(w, "Could not read the submitted form.")
		return
	}

	token, err := g.auth.Issue(r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSecret) {
			g.audit.logFailure(AuditLoginFailure, r, "wrong password")
			g.renderLogin(w, "Wrong password, try again.")
			return
		}
		g.audit.logFailure(AuditLoginFailure, r, err.Error())
		g.renderLogin(w, "Login failed, try again.")
		return
	}

	auth.WriteCookie(w, r, token)
	g.audit.logEvent(AuditLoginSuccess, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /logout: clear the cookie and send the client home,
// where the page gate takes over.
func (g *Gateway) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, r)
	g.audit.logEvent(AuditLogout, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// renderLogin writes the login page. It always answers 200: the gate is a
// full-page substitution, and a failed login re-renders the same form.
func (g *Gateway) renderLogin(w http.ResponseWriter, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	loginTemplate.Execute(w, struct{ Error string }{Error: errMsg})
}
