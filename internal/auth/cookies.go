package auth

import (
	"net/http"
	"time"
)

// SetCookies issues both token cookies on w, expiring ExpiresIn after now.
func SetCookies(w http.ResponseWriter, tokens Tokens, now time.Time) {
	expires := now.Add(tokens.ExpiresIn)
	http.SetCookie(w, sessionCookie(AccessTokenCookie, tokens.AccessToken, expires))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, tokens.RefreshToken, expires))
}

// ClearCookies overwrites both token cookies with empty, already-expired values.
func ClearCookies(w http.ResponseWriter) {
	epoch := time.Unix(0, 0).UTC()
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := sessionCookie(name, "", epoch)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// FromRequest reads the token pair from inbound cookies. ok is false unless
// both are present.
func FromRequest(r *http.Request) (Tokens, bool) {
	if r == nil {
		return Tokens{}, false
	}
	tokens := Tokens{
		AccessToken:  cookieValue(r, AccessTokenCookie),
		RefreshToken: cookieValue(r, RefreshTokenCookie),
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return Tokens{}, false
	}
	return tokens, true
}

func sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   true,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	}
}
