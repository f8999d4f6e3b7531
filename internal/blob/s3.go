package blob

import (
	"context"

	"upvcerp/internal/config"
	infraS3 "upvcerp/internal/infra/blob/s3"
)

// NewS3 builds an S3 / MinIO store from configuration.
func NewS3(ctx context.Context, cfg config.S3Config) (Store, error) {
	s, err := infraS3.New(ctx, infraS3.Config{
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		SessionToken:    cfg.SessionToken,
		PathStyle:       cfg.UsePathStyle,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewMockS3ForTests returns an S3 store backed by an in-process fake bucket.
func NewMockS3ForTests() Store { return infraS3.NewMock() }
