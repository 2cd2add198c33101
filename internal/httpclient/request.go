package httpclient

import (
	"context"
	"io"
	"net/http"
)

// HTTPRequest represents an HTTP request
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	// Body is sent as is. It can only be read once, so requests that may be
	// retried should use BodyFactory instead.
	Body io.Reader
	// BodyFactory, when set, is called before every attempt to produce a fresh body
	BodyFactory func() (io.Reader, error)
	Context     context.Context
}

// HTTPResponse represents an HTTP response with its body fully read
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Header returns the first value of the named response header
func (r *HTTPResponse) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// IsSuccess reports a 2xx status
func (r *HTTPResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

func (req *HTTPRequest) body() (io.Reader, error) {
	if req.BodyFactory != nil {
		return req.BodyFactory()
	}
	return req.Body, nil
}

func (req *HTTPRequest) ctx() context.Context {
	if req.Context == nil {
		return context.Background()
	}
	return req.Context
}
