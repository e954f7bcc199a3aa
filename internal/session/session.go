// Package session holds the credential artifacts for an authenticated crawl.
package session

// State carries the login credentials and the three artifacts extracted from
// server responses: the CSRF cookie, the session cookie, and the hidden
// anti-forgery form token. Artifact fields start unset and are populated as
// responses are parsed; they live for the process lifetime.
type State struct {
	Username        string
	Password        string
	CSRFToken       string
	SessionID       string
	MiddlewareToken string
}

// New creates a session state with credentials only.
func New(username, password string) *State {
	return &State{
		Username: username,
		Password: password,
	}
}

// Tokens is the result of one token-extraction pass over a response. Empty
// fields mean the response did not carry that artifact.
type Tokens struct {
	CSRFToken       string
	SessionID       string
	MiddlewareToken string
}

// Apply merges extracted tokens into the state. A token absent from the
// response never overwrites a previously known value.
func (s *State) Apply(t Tokens) {
	if t.CSRFToken != "" {
		s.CSRFToken = t.CSRFToken
	}
	if t.SessionID != "" {
		s.SessionID = t.SessionID
	}
	if t.MiddlewareToken != "" {
		s.MiddlewareToken = t.MiddlewareToken
	}
}

// Authenticated reports whether a session cookie has been issued.
func (s *State) Authenticated() bool {
	return s.SessionID != ""
}
