package predictions

import "errors"

// ErrNotFound indicates no record exists for the requested id.
// Distinct from infrastructure failures so the read surface can
// answer 404 instead of a generic lookup failure.
var ErrNotFound = errors.New("prediction record not found")
