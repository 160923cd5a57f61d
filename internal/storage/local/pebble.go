package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// PebbleStore is a Pebble LSM-tree backed storage.Store. Pebble holds an
// exclusive lock on its directory, so a single process owns the store and
// serves it to the others (see the store gRPC service).
type PebbleStore struct {
	db     *pebble.DB
	path   string
	logger *zap.Logger
}

// NewPebbleStore creates a PebbleStore instance (not yet opened).
func NewPebbleStore(dbPath string, logger *zap.Logger) *PebbleStore {
	return &PebbleStore{
		path:   dbPath,
		logger: logger,
	}
}

// Init opens the Pebble database.
func (p *PebbleStore) Init() error {
	opts := &pebble.Options{
		Logger: &pebbleLogger{p.logger},
	}
	db, err := pebble.Open(p.path, opts)
	if err != nil {
		return fmt.Errorf("pebble open %s: %w", p.path, err)
	}
	p.db = db
	p.logger.Info("Pebble storage opened", zap.String("path", p.path))
	return nil
}

// Close flushes and closes the database.
func (p *PebbleStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Get retrieves the value stored under key.
func (p *PebbleStore) Get(_ context.Context, key string) (string, error) {
	data, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	v := &wrapperspb.StringValue{}
	if err := proto.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return v.GetValue(), nil
}

// Set overwrites key. Writes are not synced: the store carries soft state
// that is rewritten every frame.
func (p *PebbleStore) Set(_ context.Context, key, value string) error {
	data, err := proto.Marshal(wrapperspb.String(value))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := p.db.Set([]byte(key), data, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

// Delete removes key.
func (p *PebbleStore) Delete(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.NoSync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

// Keys lists keys under prefix using a bounded iterator.
func (p *PebbleStore) Keys(_ context.Context, prefix string) ([]string, error) {
	opts := &pebble.IterOptions{}
	if prefix != "" {
		opts.LowerBound = []byte(prefix)
		opts.UpperBound = prefixUpperBound([]byte(prefix))
	}
	iter, err := p.db.NewIter(opts)
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Truncate deletes every stored key.
func (p *PebbleStore) Truncate() error {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var keys [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		k := make([]byte, len(iter.Key()))
		copy(k, iter.Key())
		keys = append(keys, k)
	}
	if err := iter.Error(); err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	for _, k := range keys {
		if err := batch.Delete(k, nil); err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}
	p.logger.Info("Truncated store", zap.Int("count", len(keys)))
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists (prefix of all 0xff).
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// pebbleLogger adapts zap.Logger to the pebble.Logger interface.
type pebbleLogger struct {
	z *zap.Logger
}

func (l *pebbleLogger) Infof(format string, args ...any) {
	l.z.Sugar().Infof(format, args...)
}

func (l *pebbleLogger) Errorf(format string, args ...any) {
	l.z.Sugar().Errorf(format, args...)
}

func (l *pebbleLogger) Fatalf(format string, args ...any) {
	l.z.Sugar().Fatalf(format, args...)
}
