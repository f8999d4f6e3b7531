// Package gcs stores backup blobs in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"upvcerp/internal/blob/core"
)

// Config selects the bucket and how to authenticate. With no credentials
// file the client uses Application Default Credentials.
type Config struct {
	Bucket          string
	CredentialsFile string
	Endpoint        string // emulator or private endpoint
}

// Store implements core.Store over one GCS bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	now    func() time.Time
}

// New opens a client for cfg. Extra options are appended after the ones
// derived from cfg.
func New(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(cfg.Bucket), name: cfg.Bucket, now: time.Now}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Driver() core.Driver { return core.DriverGCS }

// Put uses a DoesNotExist precondition so the create-only check is atomic.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	w := s.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return core.Info{}, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return core.Info{}, fmt.Errorf("%w: %s", core.ErrExists, key)
		}
		return core.Info{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return s.info(w.Attrs()), nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	rc, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return core.Info{}, nil, s.wrap(key, err)
	}
	return info, rc, nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	attrs, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return core.Info{}, s.wrap(key, err)
	}
	return s.info(attrs), nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, s.wrap(key, err)
	}
	return true, nil
}

// List relies on GCS returning objects in lexicographic key order.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	infos := []core.Info{}
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return infos, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.name, prefix, err)
		}
		infos = append(infos, s.info(attrs))
	}
}

// PresignURL needs credentials able to sign (a service account key or the
// IAM signBlob permission).
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, http.MethodGet) {
		return "", core.ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = core.DefaultPresignExpiry
	}
	return s.bucket.SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(expiry),
	})
}

func (s *Store) wrap(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", core.ErrNotFound, s.name, key)
	}
	return fmt.Errorf("gcs %s: %w", key, err)
}

func (s *Store) info(attrs *storage.ObjectAttrs) core.Info {
	if attrs == nil {
		return core.Info{}
	}
	return core.Info{
		Key:          attrs.Name,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		ETag:         attrs.Etag,
		Metadata:     attrs.Metadata,
		LastModified: attrs.Updated,
		URL:          attrs.MediaLink,
	}
}
