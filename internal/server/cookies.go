package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "leadbot_session"
	// CookieMaxAge matches a generous single visit to the site.
	CookieMaxAge = 30 * time.Minute
	// SessionHeader carries the session id for clients that cannot keep cookies.
	SessionHeader = "X-Session-Id"
)

// SetSessionCookie sets an HTTP-only session cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionCookie reads the session ID from the cookie
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// sessionID picks the id from the request body, then the header, then the
// cookie. The boolean is false when none was supplied.
func sessionID(r *http.Request, fromBody string) (string, bool) {
	if sid := strings.TrimSpace(fromBody); sid != "" {
		return sid, true
	}
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
		return sid, true
	}
	if sid, err := GetSessionCookie(r); err == nil && sid != "" {
		return sid, true
	}
	return "", false
}

// getOrCreateSessionID mints and sets a cookie for a new id when the client
// supplied none.
func getOrCreateSessionID(w http.ResponseWriter, r *http.Request, fromBody string) string {
	if sid, ok := sessionID(r, fromBody); ok {
		return sid
	}
	sid := "s_" + uuid.NewString()
	SetSessionCookie(w, r, sid)
	return sid
}
