package blob

import (
	"context"

	"upvcerp/internal/config"
	"upvcerp/internal/infra/blob/gcs"
)

// NewGCS builds a Google Cloud Storage store from configuration.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (Store, error) {
	s, err := gcs.New(ctx, gcs.Config{
		Bucket:          cfg.Bucket,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
