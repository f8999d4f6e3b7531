package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"upvcerp/internal/blob/core"
)

func TestMockStoreBackupLifecycle(t *testing.T) {
	store := NewMock()
	ctx := context.Background()
	key := "backups/upvc-erp-backup-2024-05-06.json"
	body := []byte("{\n  \"version\": 1\n}\r\n")

	info, err := store.Put(ctx, key, bytes.NewReader(body), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"operation": "op-7"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != key || info.ContentType != "application/json" || info.Size != int64(len(body)) {
		t.Fatalf("unexpected info %#v", info)
	}
	if info.Metadata["operation"] != "op-7" {
		t.Fatalf("metadata not round-tripped: %#v", info.Metadata)
	}
	if _, err := store.Put(ctx, key, bytes.NewReader([]byte("again")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, body) || got.ETag == "" || strings.Contains(got.ETag, `"`) {
		t.Fatalf("get mismatch: %q %#v", data, got)
	}

	url, err := store.PresignURL(ctx, key, core.SignedURLOptions{Expiry: 30 * time.Second})
	if err != nil || !strings.HasPrefix(url, "https://mock.s3.local/upvc-backups/") {
		t.Fatalf("presign: %v %s", err, url)
	}
	if ok, err := store.Delete(ctx, key); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, key); err != nil || ok {
		t.Fatalf("second delete should report false: %v", err)
	}
}

func TestMockStoreETagIsConsistent(t *testing.T) {
	store := NewMock()
	ctx := context.Background()
	body := []byte(`{"version":1}`)
	sum := md5.Sum(body) //nolint:gosec
	want := hex.EncodeToString(sum[:])

	put, err := store.Put(ctx, "backups/a.json", bytes.NewReader(body), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	head, err := store.Head(ctx, "backups/a.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	got, rc, err := store.Get(ctx, "backups/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = rc.Close()
	list, err := store.List(ctx, "backups/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	for name, tag := range map[string]string{"put": put.ETag, "head": head.ETag, "get": got.ETag, "list": list[0].ETag} {
		if tag != want {
			t.Fatalf("%s etag = %q, want %q", name, tag, want)
		}
	}
}

func TestMockStoreMissingKeysMapToNotFound(t *testing.T) {
	store := NewMock()
	ctx := context.Background()
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected head ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected get ErrNotFound, got %v", err)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected presign unsupported, got %v", err)
	}
}

func TestMockStoreListPaginates(t *testing.T) {
	store := NewMock()
	ctx := context.Background()
	for _, k := range []string{"backups/c.json", "backups/a.json", "backups/b.json", "other/x.json", "backups/d.json"} {
		if _, err := store.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "backups/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var keys []string
	for _, info := range list {
		keys = append(keys, info.Key)
	}
	want := "backups/a.json,backups/b.json,backups/c.json,backups/d.json"
	if strings.Join(keys, ",") != want {
		t.Fatalf("unexpected keys %v", keys)
	}
	empty, err := store.List(ctx, "none/")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list: %v %+v", err, empty)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
	s, err := New(context.Background(), Config{
		Bucket: "bkt", Endpoint: "https://minio.local", PathStyle: true,
		AccessKeyID: "AKIA", SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 || s.bucket != "bkt" {
		t.Fatalf("unexpected store %+v", s)
	}
}

func TestDecodeChunked(t *testing.T) {
	got, err := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n3\r\n\r\nx\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"))
	if err != nil || string(got) != "hello\r\nx" {
		t.Fatalf("decode: %v %q", err, got)
	}
	for _, bad := range []string{"not-chunked", "5\r\nabc", "zz\r\n", "2\r\nabXX0\r\n"} {
		if _, err := decodeChunked([]byte(bad)); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestFakeBucketRejectsUnknownMethods(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	resp, err := newFakeBucket().RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %v %v", resp, err)
	}
}
