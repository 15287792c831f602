package blob

import "discoverycore/internal/infra/blob/fs"

// NewFilesystem constructs a filesystem-backed Store rooted at the provided
// path. Returns the interface so call sites don't bind to the backend type.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
