package parser

import (
	"strings"
	"testing"
)

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{
			name:   "200 OK",
			header: "HTTP/1.1 200 OK\r\nContent-Type: text/html",
			want:   200,
		},
		{
			name:   "302 redirect",
			header: "HTTP/1.1 302 Found\r\nLocation: /",
			want:   302,
		},
		{
			name:   "503 overloaded",
			header: "HTTP/1.1 503 Service Unavailable",
			want:   503,
		},
		{
			name:   "status line not first",
			header: "X-Junk: preamble\r\nHTTP/1.1 404 Not Found",
			want:   404,
		},
		{
			name:   "no status line",
			header: "Content-Type: text/html\r\nSet-Cookie: a=b",
			want:   StatusUnknown,
		},
		{
			name:   "non-numeric code",
			header: "HTTP/1.1 OK",
			want:   StatusUnknown,
		},
		{
			name:   "empty header",
			header: "",
			want:   StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractStatusCode(tt.header); got != tt.want {
				t.Errorf("ExtractStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtractTokens_Cookies(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantCSRF    string
		wantSession string
		wantErr     bool
	}{
		{
			name:     "csrf cookie with attributes",
			header:   "HTTP/1.1 200 OK\r\nSet-Cookie: csrftoken=AbC123; Path=/; Secure",
			wantCSRF: "AbC123",
		},
		{
			name:        "session cookie from redirect",
			header:      "HTTP/1.1 302 Found\r\nSet-Cookie: sessionid=s3ss10n; HttpOnly",
			wantSession: "s3ss10n",
		},
		{
			name:        "both cookies across lines",
			header:      "HTTP/1.1 200 OK\r\nSet-Cookie: csrftoken=tok1\r\nSet-Cookie: sessionid=sid1",
			wantCSRF:    "tok1",
			wantSession: "sid1",
		},
		{
			name:        "case-insensitive header, value case kept",
			header:      "HTTP/1.1 200 OK\r\nSET-COOKIE: sessionid=MiXeD; Path=/",
			wantSession: "MiXeD",
		},
		{
			name:   "no cookies leaves fields empty",
			header: "HTTP/1.1 200 OK\r\nContent-Type: text/html",
		},
		{
			name:    "named cookie without value is malformed",
			header:  "HTTP/1.1 200 OK\r\nSet-Cookie: csrftoken=; Path=/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := ExtractTokens(tt.header, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractTokens() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tokens.CSRFToken != tt.wantCSRF {
				t.Errorf("CSRFToken = %q, want %q", tokens.CSRFToken, tt.wantCSRF)
			}
			if tokens.SessionID != tt.wantSession {
				t.Errorf("SessionID = %q, want %q", tokens.SessionID, tt.wantSession)
			}
		})
	}
}

func TestExtractTokens_MiddlewareToken(t *testing.T) {
	body := `<html><body>
		<form method="post" action="/accounts/login/">
			<input type="hidden" name="csrfmiddlewaretoken" value="mw-t0k3n">
			<input type="text" name="username">
		</form>
	</body></html>`

	tokens, err := ExtractTokens("HTTP/1.1 200 OK", body)
	if err != nil {
		t.Fatalf("ExtractTokens() error = %v", err)
	}
	if tokens.MiddlewareToken != "mw-t0k3n" {
		t.Errorf("MiddlewareToken = %q, want %q", tokens.MiddlewareToken, "mw-t0k3n")
	}
}

func TestExtractTokens_MiddlewareToken_AttributeOrder(t *testing.T) {
	// value before name must still match
	body := `<input value="reordered" type="hidden" name="csrfmiddlewaretoken">`

	tokens, err := ExtractTokens("HTTP/1.1 200 OK", body)
	if err != nil {
		t.Fatalf("ExtractTokens() error = %v", err)
	}
	if tokens.MiddlewareToken != "reordered" {
		t.Errorf("MiddlewareToken = %q, want %q", tokens.MiddlewareToken, "reordered")
	}
}

func TestExtractTokens_MissingMiddlewareToken(t *testing.T) {
	tokens, err := ExtractTokens("HTTP/1.1 200 OK", "<html><body>no form here</body></html>")
	if err != nil {
		t.Fatalf("ExtractTokens() error = %v", err)
	}
	if tokens.MiddlewareToken != "" {
		t.Errorf("MiddlewareToken = %q, want empty", tokens.MiddlewareToken)
	}
}

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
		<a href="/page1">One</a>
		<a class="nav" href="/page2">Two</a>
		<a href="/page1">Duplicate of one</a>
		<a href="#top">Fragment</a>
		<a href="/explored">Already seen</a>
	</body></html>`

	seen := func(u string) bool { return u == "/explored" }

	links := ExtractLinks(html, seen)
	want := []string{"/page1", "/page2", "#top"}
	if len(links) != len(want) {
		t.Fatalf("ExtractLinks() = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestExtractLinks_NoAnchors(t *testing.T) {
	if links := ExtractLinks("<html><body><p>plain</p></body></html>", nil); links != nil {
		t.Errorf("ExtractLinks() = %v, want nil", links)
	}
}

func TestExtractLinks_MultilineAnchor(t *testing.T) {
	html := "<a class=\"item\"\n   href=\"/split\"\n>text\nspanning lines</a>"

	links := ExtractLinks(html, nil)
	if len(links) != 1 || links[0] != "/split" {
		t.Errorf("ExtractLinks() = %v, want [/split]", links)
	}
}

func TestExtractFlags(t *testing.T) {
	flag := strings.Repeat("a", 32) + strings.Repeat("B", 16) + strings.Repeat("7", 16)

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "flag in marker element",
			html: `<p class="flag">` + flag + `</p>`,
			want: []string{flag},
		},
		{
			name: "flag with surrounding whitespace",
			html: "<span class='flag'>\n  " + flag + "\n</span>",
			want: []string{flag},
		},
		{
			name: "wrong length ignored",
			html: `<p class="flag">` + strings.Repeat("a", 63) + `</p>`,
			want: nil,
		},
		{
			name: "no marker class ignored",
			html: `<p>` + flag + `</p>`,
			want: nil,
		},
		{
			name: "non-alphanumeric ignored",
			html: `<p class="flag">` + strings.Repeat("a", 63) + `-</p>`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFlags(tt.html)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractFlags() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("flags[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
