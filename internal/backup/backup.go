// Package backup writes versioned snapshot envelopes to blob storage and
// restores them through the service.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"upvcerp/internal/blob"
	"upvcerp/internal/core"
	"upvcerp/internal/logger"
	"upvcerp/pkg/domain"
)

const (
	// FormatVersion is the envelope version written by Create.
	FormatVersion = 1
	// KeyPrefix is where backups live inside the blob store.
	KeyPrefix   = "backups/"
	filePrefix  = "upvc-erp-backup-"
	fileSuffix  = ".json"
	contentType = "application/json"
	// maxSameDay bounds the -N suffix search for one date.
	maxSameDay = 1000
)

// Envelope is the on-blob form of a backup.
type Envelope struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      domain.Snapshot `json:"data"`
}

// UnsupportedVersionError reports a backup written by a newer release.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("backup format version %d is newer than supported version %d", e.Version, FormatVersion)
}

// Source yields the snapshot to back up.
type Source interface {
	Get(ctx context.Context) (domain.Snapshot, error)
}

// Restorer accepts a snapshot as the new state.
type Restorer interface {
	RestoreData(ctx context.Context, cmd core.RestoreData) (core.Result, error)
}

// Manager creates, lists and restores backups in one blob store.
type Manager struct {
	store blob.Store
	now   func() time.Time
	log   *zap.Logger
	newID func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for file names and createdAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// New returns a Manager writing to store.
func New(store blob.Store, opts ...Option) *Manager {
	m := &Manager{store: store, now: time.Now, log: logger.L(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FileName returns the base key for a backup taken at t.
func FileName(t time.Time) string {
	return KeyPrefix + filePrefix + t.Format("2006-01-02") + fileSuffix
}

// Encode wraps snap in a current-version envelope.
func Encode(snap domain.Snapshot, createdAt time.Time) ([]byte, error) {
	env := Envelope{
		Version:   FormatVersion,
		CreatedAt: createdAt.UTC().Truncate(time.Second),
		Data:      snap.Normalized(),
	}
	return json.MarshalIndent(env, "", "  ")
}

// Decode accepts a versioned envelope or a bare snapshot. A bare snapshot
// is reported as version 0.
func Decode(raw []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Envelope{}, fmt.Errorf("decode backup: %w", err)
	}
	if _, enveloped := fields["data"]; !enveloped {
		var snap domain.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return Envelope{}, fmt.Errorf("decode legacy backup: %w", err)
		}
		return Envelope{Version: 0, Data: snap.Normalized()}, nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode backup envelope: %w", err)
	}
	if env.Version > FormatVersion {
		return Envelope{}, &UnsupportedVersionError{Version: env.Version}
	}
	env.Data = env.Data.Normalized()
	return env, nil
}

// Create snapshots src and writes it under today's file name, adding -2,
// -3 and so on when earlier backups from the same day exist.
func (m *Manager) Create(ctx context.Context, src Source) (blob.Info, error) {
	snap, err := src.Get(ctx)
	if err != nil {
		return blob.Info{}, fmt.Errorf("read state for backup: %w", err)
	}
	now := m.now()
	body, err := Encode(snap, now)
	if err != nil {
		return blob.Info{}, err
	}
	opID := m.newID()
	log := logger.FromContextOr(ctx, m.log).With(zap.String("operation", opID))

	base := FileName(now)
	opts := blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"operation": opID,
			"version":   strconv.Itoa(FormatVersion),
		},
	}
	for n := 1; n <= maxSameDay; n++ {
		key := base
		if n > 1 {
			key = strings.TrimSuffix(base, fileSuffix) + "-" + strconv.Itoa(n) + fileSuffix
		}
		info, err := m.store.Put(ctx, key, bytes.NewReader(body), opts)
		if errors.Is(err, blob.ErrExists) {
			continue
		}
		if err != nil {
			log.Error("backup write failed", zap.String("key", key), zap.Error(err))
			return blob.Info{}, fmt.Errorf("write backup %s: %w", key, err)
		}
		log.Info("backup written",
			zap.String("key", key),
			zap.Int64("bytes", info.Size),
			zap.String("driver", string(m.store.Driver())))
		return info, nil
	}
	return blob.Info{}, fmt.Errorf("more than %d backups already exist for %s", maxSameDay, base)
}

// Load reads and decodes the backup at key without applying it.
func (m *Manager) Load(ctx context.Context, key string) (Envelope, error) {
	_, rc, err := m.store.Get(ctx, key)
	if err != nil {
		return Envelope{}, fmt.Errorf("open backup %s: %w", key, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return Envelope{}, fmt.Errorf("read backup %s: %w", key, err)
	}
	return Decode(raw)
}

// Restore loads the backup at key and replaces the state of dst with it.
// The replace is unconditional; dst records the restore in its activity log.
func (m *Manager) Restore(ctx context.Context, key string, dst Restorer) (Envelope, error) {
	env, err := m.Load(ctx, key)
	if err != nil {
		return Envelope{}, err
	}
	if _, err := dst.RestoreData(ctx, core.RestoreData{Data: env.Data}); err != nil {
		return Envelope{}, fmt.Errorf("restore %s: %w", key, err)
	}
	logger.FromContextOr(ctx, m.log).Info("backup restored",
		zap.String("key", key),
		zap.Int("version", env.Version))
	return env, nil
}

// RestoreFrom restores from an arbitrary reader, e.g. a file the user picked.
func RestoreFrom(ctx context.Context, r io.Reader, dst Restorer) (Envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("read backup: %w", err)
	}
	env, err := Decode(raw)
	if err != nil {
		return Envelope{}, err
	}
	if _, err := dst.RestoreData(ctx, core.RestoreData{Data: env.Data}); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// List returns the stored backups, oldest first.
func (m *Manager) List(ctx context.Context) ([]blob.Info, error) {
	infos, err := m.store.List(ctx, KeyPrefix+filePrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(infos, func(i, j int) bool { return lessKey(infos[i].Key, infos[j].Key) })
	return infos, nil
}

// Latest returns the most recent backup, or blob.ErrNotFound when none exist.
func (m *Manager) Latest(ctx context.Context) (blob.Info, error) {
	infos, err := m.List(ctx)
	if err != nil {
		return blob.Info{}, err
	}
	if len(infos) == 0 {
		return blob.Info{}, fmt.Errorf("%w: no backups under %s", blob.ErrNotFound, KeyPrefix)
	}
	return infos[len(infos)-1], nil
}

// lessKey orders by date then by same-day sequence, so -10 sorts after -9.
func lessKey(a, b string) bool {
	da, na := splitKey(a)
	db, nb := splitKey(b)
	if da != db {
		return da < db
	}
	return na < nb
}

func splitKey(key string) (date string, seq int) {
	name := strings.TrimSuffix(strings.TrimPrefix(key, KeyPrefix+filePrefix), fileSuffix)
	if len(name) <= len("2006-01-02") {
		return name, 1
	}
	date, rest := name[:len("2006-01-02")], strings.TrimPrefix(name[len("2006-01-02"):], "-")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return name, 1
	}
	return date, n
}
