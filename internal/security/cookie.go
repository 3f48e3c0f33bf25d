package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessTokenCookieName = "access_token"
	CSRFCookieName        = "csrf_token"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch strings.ToLower(strings.TrimSpace(sameSite)) {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetSessionCookies writes the HttpOnly access token and the script-readable
// CSRF companion with the same lifetime.
func (m *CookieManager) SetSessionCookies(w http.ResponseWriter, accessToken, csrfToken string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	http.SetCookie(w, m.cookie(AccessTokenCookieName, accessToken, maxAge, true))
	http.SetCookie(w, m.cookie(CSRFCookieName, csrfToken, maxAge, false))
}

func (m *CookieManager) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(AccessTokenCookieName, "", -1, true))
	http.SetCookie(w, m.cookie(CSRFCookieName, "", -1, false))
}

func (m *CookieManager) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
