package blob

import (
	"context"
	"io"
	"strings"
)

// WithPrefix scopes every key of s under prefix, so several installations
// can share one bucket. Keys seen by callers never include the prefix.
func WithPrefix(s Store, prefix string) Store {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + "/"}
}

type prefixed struct {
	inner  Store
	prefix string
}

func (p *prefixed) Driver() Driver { return p.inner.Driver() }

func (p *prefixed) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	info, err := p.inner.Put(ctx, p.prefix+key, r, opts)
	return p.strip(info), err
}

func (p *prefixed) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, rc, err := p.inner.Get(ctx, p.prefix+key)
	return p.strip(info), rc, err
}

func (p *prefixed) Head(ctx context.Context, key string) (Info, error) {
	info, err := p.inner.Head(ctx, p.prefix+key)
	return p.strip(info), err
}

func (p *prefixed) Delete(ctx context.Context, key string) (bool, error) {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) List(ctx context.Context, prefix string) ([]Info, error) {
	infos, err := p.inner.List(ctx, p.prefix+prefix)
	for i := range infos {
		infos[i] = p.strip(infos[i])
	}
	return infos, err
}

func (p *prefixed) PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	return p.inner.PresignURL(ctx, p.prefix+key, opts)
}

func (p *prefixed) strip(info Info) Info {
	info.Key = strings.TrimPrefix(info.Key, p.prefix)
	return info
}
