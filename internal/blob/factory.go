package blob

import (
	"context"
	"fmt"
	"strings"

	"upvcerp/internal/config"
)

// Open builds the Store selected by cfg.Driver and scopes it to cfg.Prefix
// when one is set. An empty driver means the filesystem.
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch Driver(strings.ToLower(strings.TrimSpace(cfg.Driver))) {
	case DriverFilesystem, "":
		store, err = NewFilesystem(cfg.FSRoot)
	case DriverMemory:
		store = NewMemory()
	case DriverS3:
		store, err = NewS3(ctx, cfg.S3)
	case DriverGCS:
		store, err = NewGCS(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", cfg.Driver, err)
	}
	return WithPrefix(store, cfg.Prefix), nil
}
