package session

import (
	"net/http"

	"boardhub/internal/auth"
)

const CookieName = "sid"

// Cookies reads and writes the signed session id cookie.
type Cookies struct {
	secret []byte
	secure bool
}

func NewCookies(secret string, secure bool) Cookies {
	return Cookies{secret: []byte(secret), secure: secure}
}

// Read returns the session id carried by the request, if present and correctly signed.
func (c Cookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return auth.VerifyValue(c.secret, cookie.Value)
}

func (c Cookies) Write(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    auth.SignValue(c.secret, sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
