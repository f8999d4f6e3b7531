package blob

import (
	"upvcerp/internal/infra/blob/fs"
)

// NewFilesystem returns a Store rooted at root. An empty root means
// ./blobdata.
func NewFilesystem(root string) (Store, error) {
	s, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return s, nil
}
