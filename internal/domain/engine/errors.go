package engine

import "errors"

// ErrQuotaExceeded indicates the engine provider returned a quota/limit
// error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("engine quota exceeded")
