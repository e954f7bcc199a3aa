package crawler

import "github.com/ctfhound/flagcrawl/internal/output"

// Report is the crawl result returned by Run.
type Report = output.Report

// Phase represents the crawl state machine.
type Phase int

const (
	// Unauthenticated is the initial phase before any request.
	Unauthenticated Phase = iota
	// LoggingIn covers the login-page fetch and credential submission.
	LoggingIn
	// AuthenticatedIdle means a session cookie is held but traversal has
	// not started.
	AuthenticatedIdle
	// Traversing is the breadth-first crawl over the frontier.
	Traversing
	// Done is terminal: traversal never resumes.
	Done
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Unauthenticated:
		return "unauthenticated"
	case LoggingIn:
		return "logging_in"
	case AuthenticatedIdle:
		return "authenticated_idle"
	case Traversing:
		return "traversing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Conn is the transport surface the engine drives. Satisfied by
// *transport.Client; tests substitute a scripted connection.
type Conn interface {
	Send(b []byte) error
	ReadResponse() (header string, body []byte, err error)
	ReadHeader() (header string, err error)
	Close() error
}
