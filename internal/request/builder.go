// Package request constructs raw HTTP/1.1 request byte sequences.
package request

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ctfhound/flagcrawl/internal/session"
)

// Builder produces request bytes for a single target host. Paths are used
// verbatim as emitted by the server; no normalization or resolution happens
// here.
type Builder struct {
	host      string
	userAgent string
}

// New creates a builder for the given host (used in the Host header).
func New(host string) *Builder {
	return &Builder{host: host}
}

// SetUserAgent sets an optional User-Agent header for all requests.
func (b *Builder) SetUserAgent(ua string) {
	b.userAgent = ua
}

// Get builds a GET request for path carrying whichever cookies the session
// currently knows.
func (b *Builder) Get(path string, s *session.State) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("GET %s HTTP/1.1\r\n", path))
	b.writeCommonHeaders(&sb, s)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// LoginPost builds the login form submission. The body form-encodes the
// credentials, the extracted middleware token, and the fixed redirect
// target; Content-Length is the exact byte length of the encoded body.
func (b *Builder) LoginPost(path, redirectTo string, s *session.State) []byte {
	form := url.Values{}
	form.Set("username", s.Username)
	form.Set("password", s.Password)
	form.Set("csrfmiddlewaretoken", s.MiddlewareToken)
	form.Set("next", redirectTo)
	body := form.Encode()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("POST %s HTTP/1.1\r\n", path))
	b.writeCommonHeaders(&sb, s)
	sb.WriteString("Content-Type: application/x-www-form-urlencoded\r\n")
	sb.WriteString(fmt.Sprintf("Content-Length: %d\r\n", len(body)))
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

func (b *Builder) writeCommonHeaders(sb *strings.Builder, s *session.State) {
	sb.WriteString(fmt.Sprintf("Host: %s\r\n", b.host))
	if b.userAgent != "" {
		sb.WriteString(fmt.Sprintf("User-Agent: %s\r\n", b.userAgent))
	}
	sb.WriteString("Accept-Encoding: gzip\r\n")
	if cookie := cookieHeader(s); cookie != "" {
		sb.WriteString(fmt.Sprintf("Cookie: %s\r\n", cookie))
	}
	sb.WriteString("Connection: keep-alive\r\n")
}

// cookieHeader includes whichever of the session/CSRF cookies are currently
// known. Before authentication this is empty and the header is omitted.
func cookieHeader(s *session.State) string {
	if s == nil {
		return ""
	}
	var parts []string
	if s.SessionID != "" {
		parts = append(parts, "sessionid="+s.SessionID)
	}
	if s.CSRFToken != "" {
		parts = append(parts, "csrftoken="+s.CSRFToken)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}
