// Package testing holds fakes shared by the playthrough test suites.
package testing

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	ErrWriteFailed = errors.New("write failed")
	ErrReadFailed  = errors.New("read failed")
)

// WriteBudget passes the first n writes through to target and fails every write after that.
type WriteBudget struct {
	remaining int
	target    io.Writer
}

// NewWriteBudget returns a writer that accepts n writes. n == 0 fails every write.
func NewWriteBudget(n int, target io.Writer) *WriteBudget {
	return &WriteBudget{remaining: n, target: target}
}

func (b *WriteBudget) Write(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, ErrWriteFailed
	}
	b.remaining--
	return b.target.Write(p)
}

// Transport is an [http.RoundTripper] backed by a function, for provider failures an httptest
// server cannot produce.
type Transport func(*http.Request) (*http.Response, error)

func (t Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t(r)
}

// FailingTransport fails every request with err before anything reaches the network.
func FailingTransport(err error) Transport {
	return func(*http.Request) (*http.Response, error) { return nil, err }
}

// StaticTransport answers every request with status and body.
func StaticTransport(status int, body io.ReadCloser) Transport {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: body, Header: make(http.Header), Request: r}, nil
	}
}

// TextBody is a response body holding s.
func TextBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// BrokenBody is a response body whose reads fail mid-stream.
type BrokenBody struct{}

func (BrokenBody) Read([]byte) (int, error) { return 0, ErrReadFailed }

func (BrokenBody) Close() error { return nil }

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}
