// Package session resolves the authenticated identity a request or a
// client mount operates as.
package session

// Session is the resolved identity for one request or one client
// mount. The zero value is anonymous: no owner, no token.
type Session struct {
	owner string
	token string
}

// New builds a session for a verified owner and its raw access token.
func New(owner, token string) Session {
	return Session{owner: owner, token: token}
}

// Owner returns the authenticated owner id, if any.
func (s Session) Owner() (string, bool) {
	return s.owner, s.owner != ""
}

// Token returns the raw access token backing the session, if any.
func (s Session) Token() (string, bool) {
	return s.token, s.token != ""
}
