package http

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
)

// maxBodyBytes caps request bodies; every inbound payload here is a small
// JSON document.
const maxBodyBytes = 1 << 20

// DecodeJSON decodes a JSON request body into dst. The body is size-capped
// and must contain a single JSON value.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	// Reject trailing garbage after the JSON document
	if dec.More() {
		return fmt.Errorf("invalid request body: unexpected trailing data")
	}

	return nil
}

// RemoteIP returns the request's client IP without the port. The router runs
// behind chi's RealIP middleware, so RemoteAddr already reflects the
// forwarded client address.
func RemoteIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
