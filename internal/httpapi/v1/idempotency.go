package v1

import (
    "net/http"
    "strings"
)

const (
    idempotencyHeader    = "Idempotency-Key"
    maxIdempotencyKeyLen = 128
)

// idempotencyKey returns the trimmed Idempotency-Key header. ok is false when
// the key is present but unusable.
func idempotencyKey(r *http.Request) (key string, ok bool) {
    key = strings.TrimSpace(r.Header.Get(idempotencyHeader))
    if len(key) > maxIdempotencyKeyLen { return "", false }
    return key, true
}
