// Package transport owns the TLS-wrapped stream socket and HTTP/1.1
// response framing for the crawler's single persistent connection.
package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/ctfhound/flagcrawl/internal/errors"
)

const (
	// chunkSize is the fixed read size for response framing.
	chunkSize = 4096

	// headerBoundary separates header text from the raw body.
	headerBoundary = "\r\n\r\n"
)

// gzipMagic marks the start of a gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// legacyTrailer is the two-byte pattern the legacy framing heuristic watches
// for at the end of the buffered stream. Small gzip bodies end with the
// uncompressed-size field whose top bytes are zero, so the original client
// stopped reading once the tail went quiet. It can false-trigger on
// truncated reads; content-length framing is the default for that reason.
var legacyTrailer = []byte{0x00, 0x00}

// Config holds connection parameters.
type Config struct {
	Host               string        `json:"host" yaml:"host"`
	Port               int           `json:"port" yaml:"port"`
	InsecureSkipVerify bool          `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Proxy              string        `json:"proxy" yaml:"proxy"` // socks5://host:port, empty = direct
	Timeout            time.Duration `json:"timeout" yaml:"timeout"`
	LegacyFraming      bool          `json:"legacy_framing" yaml:"legacy_framing"`
}

// DefaultConfig returns connection defaults.
func DefaultConfig() Config {
	return Config{
		Port: 443,
	}
}

// Client is the crawler's single keep-alive connection. All requests for the
// process lifetime reuse it; it is not safe for concurrent use, matching the
// strictly sequential crawl model.
type Client struct {
	conn    net.Conn
	cfg     Config
	pending bytes.Buffer // bytes over-read past a header-only response
}

// Dial opens a TCP connection (optionally through a SOCKS5 upstream) and
// negotiates TLS over it. Failure is fatal and never retried.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	raw, err := dialRaw(ctx, cfg, addr)
	if err != nil {
		return nil, errors.NewNetworkError(addr, "connect", err)
	}

	tlsConn := tls.Client(raw, &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, errors.NewNetworkError(addr, "tls_handshake", err)
	}

	return &Client{conn: tlsConn, cfg: cfg}, nil
}

func dialRaw(ctx context.Context, cfg Config, addr string) (net.Conn, error) {
	if cfg.Proxy == "" {
		d := &net.Dialer{Timeout: cfg.Timeout}
		return d.DialContext(ctx, "tcp", addr)
	}

	u, err := url.Parse(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Scheme != "socks5" {
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	var auth *proxy.Auth
	if u.User != nil {
		auth = &proxy.Auth{User: u.User.Username()}
		auth.Password, _ = u.User.Password()
	}

	d, err := proxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return d.Dial("tcp", addr)
}

// NewFromConn wraps an existing connection. Used by tests to drive the
// framing logic over an in-memory pipe.
func NewFromConn(conn net.Conn, cfg Config) *Client {
	return &Client{conn: conn, cfg: cfg}
}

// Send writes the full request to the socket, looping on partial writes.
func (c *Client) Send(b []byte) error {
	if c.cfg.Timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.Timeout))
	}
	for len(b) > 0 {
		n, err := c.conn.Write(b)
		if err != nil {
			return errors.NewNetworkError(c.cfg.Host, "send", err)
		}
		b = b[n:]
	}
	return nil
}

// ReadResponse reads one full HTTP response: it accumulates fixed-size
// chunks until the peer closes the connection or a body-termination signal
// is observed, splits the buffer at the first blank-line boundary, and
// decompresses the raw body when it carries the gzip magic.
func (c *Client) ReadResponse() (string, []byte, error) {
	buf, err := c.readFramed()
	if err != nil {
		return "", nil, err
	}

	idx := bytes.Index(buf, []byte(headerBoundary))
	if idx < 0 {
		return "", nil, errors.NewProtocolError(c.cfg.Host, "read_response",
			fmt.Errorf("no header boundary in %d-byte response", len(buf)))
	}

	header := string(buf[:idx])
	body := buf[idx+len(headerBoundary):]

	if bytes.HasPrefix(body, gzipMagic) {
		body, err = gunzip(body)
		if err != nil {
			return "", nil, errors.NewProtocolError(c.cfg.Host, "decompress", err)
		}
	}

	return header, body, nil
}

// ReadHeader reads only up to the blank-line boundary, without waiting for a
// body. Bytes over-read past the boundary stay buffered for the next read on
// the keep-alive connection.
func (c *Client) ReadHeader() (string, error) {
	var buf []byte
	chunk := make([]byte, chunkSize)

	if c.pending.Len() > 0 {
		buf = append(buf, c.pending.Next(c.pending.Len())...)
	}

	for {
		if idx := bytes.Index(buf, []byte(headerBoundary)); idx >= 0 {
			c.pending.Write(buf[idx+len(headerBoundary):])
			return string(buf[:idx]), nil
		}

		n, err := c.read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			if idx := bytes.Index(buf, []byte(headerBoundary)); idx >= 0 {
				return string(buf[:idx]), nil
			}
			return "", errors.NewProtocolError(c.cfg.Host, "read_header",
				fmt.Errorf("connection closed before header boundary"))
		}
		if err != nil {
			return "", errors.NewNetworkError(c.cfg.Host, "read_header", err)
		}
	}
}

// readFramed accumulates chunks until a termination condition holds.
func (c *Client) readFramed() ([]byte, error) {
	var buf []byte
	chunk := make([]byte, chunkSize)

	if c.pending.Len() > 0 {
		buf = append(buf, c.pending.Next(c.pending.Len())...)
		if c.terminated(buf) {
			return buf, nil
		}
	}

	for {
		n, err := c.read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if c.terminated(buf) {
				return buf, nil
			}
		}
		if err == io.EOF {
			if len(buf) == 0 {
				return nil, errors.NewNetworkError(c.cfg.Host, "read_response", io.ErrUnexpectedEOF)
			}
			return buf, nil
		}
		if err != nil {
			return nil, errors.NewNetworkError(c.cfg.Host, "read_response", err)
		}
	}
}

func (c *Client) read(chunk []byte) (int, error) {
	if c.cfg.Timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
	}
	return c.conn.Read(chunk)
}

// terminated decides whether the buffered bytes form a complete response.
// The default strategy honors Content-Length when present and otherwise
// waits for end-of-stream; legacy framing instead watches for the trailer
// pattern after the header boundary, preserving the original behavior.
func (c *Client) terminated(buf []byte) bool {
	idx := bytes.Index(buf, []byte(headerBoundary))
	if idx < 0 {
		return false
	}

	if c.cfg.LegacyFraming {
		body := buf[idx+len(headerBoundary):]
		return len(body) >= len(legacyTrailer) && bytes.HasSuffix(buf, legacyTrailer)
	}

	length, ok := contentLength(string(buf[:idx]))
	if !ok {
		return false // no framing info, read to EOF
	}
	return len(buf)-(idx+len(headerBoundary)) >= length
}

// contentLength parses the Content-Length header, case-insensitively.
func contentLength(header string) (int, bool) {
	for _, line := range strings.Split(header, "\r\n") {
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "content-length:") {
			continue
		}
		v := strings.TrimSpace(line[len("content-length:"):])
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func gunzip(body []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
