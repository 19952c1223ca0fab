package security

import (
	"net/http"
	"time"
)

const (
	SessionCookieName = "session_token"
	CSRFCookieName    = "csrf_token"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch sameSite {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetSessionCookies installs the HttpOnly session credential and the
// JS-readable CSRF double-submit value.
func (m *CookieManager) SetSessionCookies(w http.ResponseWriter, session, csrf string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name: SessionCookieName, Value: session, Path: "/",
		HttpOnly: true, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain, MaxAge: maxAge,
	})
	http.SetCookie(w, &http.Cookie{
		Name: CSRFCookieName, Value: csrf, Path: "/",
		HttpOnly: false, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain, MaxAge: maxAge,
	})
}

func (m *CookieManager) ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{SessionCookieName, CSRFCookieName} {
		httpOnly := name == SessionCookieName
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", Path: "/",
			HttpOnly: httpOnly, Secure: m.Secure, SameSite: m.SameSite, Domain: m.Domain, MaxAge: -1,
		})
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
