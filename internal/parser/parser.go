// Package parser extracts status codes, session tokens, links, and flags
// from raw HTTP responses.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ctfhound/flagcrawl/internal/errors"
	"github.com/ctfhound/flagcrawl/internal/session"
)

// StatusUnknown is returned when no parseable status line is present.
// Callers must treat it as fatal, never as a continuation state.
const StatusUnknown = -1

// FlagLength is the exact length of a harvested flag token.
const FlagLength = 64

var (
	// Anchor extraction is deliberately regex-based: the target markup is a
	// fixed contract and the non-greedy single-group match tolerates the
	// malformed fragments the server emits. hrefs are captured verbatim.
	anchorRe = regexp.MustCompile(`(?s)<a\s[^>]*?href="(.*?)"[^>]*>.*?</a>`)

	// A flag is a 64-character alphanumeric token inside the marker element.
	flagRe = regexp.MustCompile(`<[a-zA-Z][^>]*class=["']?flag["']?[^>]*>\s*([A-Za-z0-9]{64})\s*<`)

	csrfCookieRe    = regexp.MustCompile(`csrftoken=([^;\s"]*)`)
	sessionCookieRe = regexp.MustCompile(`sessionid=([^;\s"]*)`)
)

// ExtractStatusCode scans the response header for a line beginning with the
// HTTP version token and parses the numeric status. Returns StatusUnknown if
// no status line is found or the code is non-numeric.
func ExtractStatusCode(header string) int {
	for _, line := range strings.Split(header, "\r\n") {
		if !strings.HasPrefix(line, "HTTP/") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return StatusUnknown
		}
		code, err := strconv.Atoi(fields[1])
		if err != nil {
			return StatusUnknown
		}
		return code
	}
	return StatusUnknown
}

// ExtractTokens scans header lines for the csrftoken and sessionid Set-Cookie
// values and the response body for the hidden csrfmiddlewaretoken input.
// Header names are matched case-insensitively; values keep their original
// case and are trimmed of surrounding ';' and '"' delimiters. A missing
// artifact yields an empty field, never an error; a Set-Cookie line naming a
// tracked cookie but carrying no parseable value is a parse error.
func ExtractTokens(header, body string) (session.Tokens, error) {
	var tokens session.Tokens

	for _, line := range strings.Split(header, "\r\n") {
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "set-cookie:") {
			continue
		}
		if strings.Contains(lower, "csrftoken=") {
			v, err := cookieValue(line, csrfCookieRe)
			if err != nil {
				return tokens, err
			}
			tokens.CSRFToken = v
		}
		if strings.Contains(lower, "sessionid=") {
			v, err := cookieValue(line, sessionCookieRe)
			if err != nil {
				return tokens, err
			}
			tokens.SessionID = v
		}
	}

	if body != "" {
		tokens.MiddlewareToken = extractMiddlewareToken(body)
	}

	return tokens, nil
}

// cookieValue pulls the cookie value out of a Set-Cookie line. The line is
// known to name the cookie, so an empty capture means the header is
// malformed rather than absent.
func cookieValue(line string, re *regexp.Regexp) (string, error) {
	m := re.FindStringSubmatch(line)
	if m == nil || m[1] == "" {
		return "", errors.New(errors.Parse, "", "set_cookie", "cookie named but value missing: "+line, nil)
	}
	return strings.Trim(m[1], `;"`), nil
}

// extractMiddlewareToken finds the hidden anti-forgery input in the login
// form markup. Structural matching keeps the same semantics as the literal
// value="..." scrape while tolerating attribute reordering.
func extractMiddlewareToken(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	val, _ := doc.Find(`input[name="csrfmiddlewaretoken"]`).First().Attr("value")
	return strings.Trim(val, `;"`)
}

// ExtractLinks matches anchor tags and returns hrefs not already seen.
// hrefs pass through as literal strings exactly as captured: fragment-only
// and absolute URLs are not special-cased. The seen filter covers the
// explored set and the current frontier; duplicates within one document are
// also collapsed.
func ExtractLinks(html string, seen func(string) bool) []string {
	matches := anchorRe.FindAllStringSubmatch(html, -1)
	if matches == nil {
		return nil
	}

	links := make([]string, 0, len(matches))
	local := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		href := m[1]
		if _, dup := local[href]; dup {
			continue
		}
		local[href] = struct{}{}
		if seen != nil && seen(href) {
			continue
		}
		links = append(links, href)
	}
	return links
}

// ExtractFlags returns every flag token found in the document. A page
// carries zero or one flag, but the extractor does not rely on that.
func ExtractFlags(html string) []string {
	matches := flagRe.FindAllStringSubmatch(html, -1)
	if matches == nil {
		return nil
	}
	flags := make([]string, 0, len(matches))
	for _, m := range matches {
		flags = append(flags, m[1])
	}
	return flags
}
