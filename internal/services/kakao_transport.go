package services

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// jsonBodyTransport labels JSON bodies that Kakao serves without a JSON
// content type, so oauth2 reads the error field instead of parsing a form.
type jsonBodyTransport struct {
	base http.RoundTripper
}

func (t jsonBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.Body == nil {
		return resp, err
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}
