package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Store is the session store for the browser sign-in flow. It holds
// temporary state while the user is redirected to the identity provider
// (anti-forgery state and the URL to return to).
var Store *sessions.CookieStore

// SessionName is the name of the sign-in session cookie.
const SessionName = "signin-session"

// Session value keys.
const (
	SessionKeyState       = "state"
	SessionKeyOriginalURL = "original_url"
)

// InitSessionStore initializes the cookie-based session store for the
// sign-in flow.
//
// The secret parameter signs session cookies. Any passphrase works; it is
// SHA-256 hashed to derive a 32-byte key. The secret must be consistent
// across restarts and across servers behind a load balancer.
//
// The session has a short TTL since it only needs to outlive the redirect
// round trip.
func InitSessionStore(secret string) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// GetSession retrieves the sign-in session from the request.
// Creates a new session if one doesn't exist.
func GetSession(r *http.Request) (*sessions.Session, error) {
	return Store.Get(r, SessionName)
}

// SaveSession saves the session to the response.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return session.Save(r, w)
}

// ClearSessionValues removes sign-in state from the session after a
// completed flow.
func ClearSessionValues(session *sessions.Session) {
	delete(session.Values, SessionKeyState)
	delete(session.Values, SessionKeyOriginalURL)
}
