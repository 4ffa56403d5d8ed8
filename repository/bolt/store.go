package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

// Key prefixes inside the single data bucket. Collections are read back with a
// prefix scan, the same layout as the hosted key-value store the app started on.
const (
	prefixTask     = "task:"
	prefixProfile  = "user:"
	prefixActivity = "activity:"
)

// Store keeps tasks, profiles and activity in one BoltDB bucket.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "listify"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

func (s *Store) kv() kv { return kv{db: s.db, bucket: s.bucket} }

func (s *Store) Tasks() repository.TaskRepository {
	return &taskRepository{kv: s.kv()}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{kv: s.kv()}
}

func (s *Store) Activities() repository.ActivityRepository {
	return &activityRepository{kv: s.kv()}
}

// WithinTx runs fn inside a single read-write Bolt transaction. Bolt allows one
// writer at a time, so concurrent units of work are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&txScope{kv: kv{tx: btx, bucket: s.bucket}})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type txScope struct {
	kv kv
}

func (t *txScope) Tasks() repository.TaskRepository {
	return &taskRepository{kv: t.kv}
}

func (t *txScope) Profiles() repository.ProfileRepository {
	return &profileRepository{kv: t.kv}
}

func (t *txScope) Activities() repository.ActivityRepository {
	return &activityRepository{kv: t.kv}
}

var _ repository.Store = (*Store)(nil)

// kv runs bucket operations either inside an open transaction or in a fresh
// one per call.
type kv struct {
	db     *bolt.DB
	tx     *bolt.Tx
	bucket []byte
}

func (k kv) view(fn func(b *bolt.Bucket) error) error {
	if k.tx != nil {
		return fn(k.tx.Bucket(k.bucket))
	}
	if k.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return k.db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(k.bucket))
	})
}

func (k kv) update(fn func(b *bolt.Bucket) error) error {
	if k.tx != nil {
		return fn(k.tx.Bucket(k.bucket))
	}
	if k.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return k.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(k.bucket))
	})
}

func getJSON(b *bolt.Bucket, key string, out interface{}) (bool, error) {
	raw := b.Get([]byte(key))
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, decodeError(key, err)
	}
	return true, nil
}

func decodeError(key string, err error) error {
	return domain.WrapError(domain.ErrCodeInternal, "decode "+key, err)
}

func putJSON(b *bolt.Bucket, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), payload)
}

// scanPrefix visits every key that starts with prefix in key order.
func scanPrefix(b *bolt.Bucket, prefix string, fn func(k, v []byte) error) error {
	p := []byte(prefix)
	c := b.Cursor()
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// head returns how many of n items a limit keeps. Zero means no limit.
func head(n, limit int) int {
	if limit > 0 && limit < n {
		return limit
	}
	return n
}
