// Package archive defines the raw payload archive interface.
//
// Each orchestration run can optionally retain the raw upstream JSON
// bodies it fetched, keyed by sync key, for later replay and debugging.
package archive

import (
	"context"
	"io"
)

// Store writes raw payload blobs and returns a URI for each.
type Store interface {
	// PutObject writes data under path with the given content type and
	// returns a scheme-qualified URI for the stored object.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// NoOp discards payloads.
type NoOp struct{}

// PutObject discards the data and returns an empty URI.
func (NoOp) PutObject(_ context.Context, _ string, _ string, _ io.Reader) (string, error) {
	return "", nil
}
