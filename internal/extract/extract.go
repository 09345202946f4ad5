// Package extract provides document text extraction collaborators.
package extract

import "context"

// Extractor returns the full textual content of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
