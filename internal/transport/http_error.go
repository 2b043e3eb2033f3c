package transport

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// HTTPError is a sanitized summary of a non-2xx API response.
//
// Raw response bodies are not kept: they can echo customer PII.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string

	// Snippet is a redacted, truncated hint of the response body.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "api http error"
	}
	s := fmt.Sprintf("api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status))
	if strings.TrimSpace(e.Snippet) != "" {
		s += " body=" + strings.TrimSpace(e.Snippet)
	}
	return s
}

func newHTTPError(op string, resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = redactAndTruncate(body)
	return h
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := emailRe.ReplaceAllString(string(b), "<email>")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
