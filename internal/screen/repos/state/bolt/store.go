package bolt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/ringguard/internal/screen/domain"
	"github.com/haukened/ringguard/internal/screen/repos/state"
)

var (
	bucketSettings  = []byte("settings")
	bucketLog       = []byte("blocked_log")
	bucketAllowList = []byte("whitelist")
	bucketMeta      = []byte("meta")

	keyEnabled  = []byte("blocking_enabled")
	keySchedule = []byte("schedule")
	keyCount    = []byte("blocked_count")
)

var allBuckets = [][]byte{bucketSettings, bucketLog, bucketAllowList, bucketMeta}

// bucketCreator is the subset of *bbolt.Tx used to create buckets.
type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

// bucketDeleter is the subset of *bbolt.Tx used to drop buckets.
type bucketDeleter interface {
	DeleteBucket(name []byte) error
}

// ensureBuckets creates every bucket the store relies on.
func ensureBuckets(tx bucketCreator) error {
	for _, name := range allBuckets {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}

// deleteBuckets drops the named buckets, ignoring ones that do not exist.
func deleteBuckets(tx bucketDeleter, names ...[]byte) error {
	for _, name := range names {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return fmt.Errorf("delete bucket %s: %w", name, err)
		}
	}
	return nil
}

// Seams replaced in tests to reach error paths.
var (
	ensureBucketsFn = ensureBuckets
	deleteBucketsFn = deleteBuckets
)

// boltStore implements state.Store using bbolt. Each exported operation runs
// in a single bbolt transaction, so a counter update and the log mutation it
// accounts for are committed together.
type boltStore struct {
	db       *bbolt.DB
	repaired uint64
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (state.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	var repaired uint64
	if err := db.Update(func(tx *bbolt.Tx) error {
		if err := ensureBucketsFn(tx); err != nil {
			return err
		}
		var err error
		repaired, err = repairLog(tx)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db, repaired: repaired}, nil
}

// repairLog drops log values that no longer decode and resets the counter to
// the number of entries left, so the counter matches what Rejections returns.
func repairLog(tx *bbolt.Tx) (uint64, error) {
	lb, mb := tx.Bucket(bucketLog), tx.Bucket(bucketMeta)
	if lb == nil || mb == nil {
		return 0, nil
	}
	dropped, err := purge(lb, func(domain.RejectionEntry) bool { return false })
	if err != nil {
		return 0, err
	}
	if n := countKeys(lb); decodeUint64(mb.Get(keyCount)) != n {
		if err := mb.Put(keyCount, encodeUint64(n)); err != nil {
			return 0, err
		}
	}
	return dropped, nil
}

// purge deletes every undecodable entry and every entry match selects. It
// returns how many undecodable entries were dropped.
func purge(lb *bbolt.Bucket, match func(domain.RejectionEntry) bool) (uint64, error) {
	var doomed [][]byte
	var corrupt uint64
	c := lb.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		e, err := decodeRejection(v)
		if err != nil {
			corrupt++
		}
		if err != nil || match(e) {
			doomed = append(doomed, append([]byte(nil), k...))
		}
	}
	for _, k := range doomed {
		if err := lb.Delete(k); err != nil {
			return 0, err
		}
	}
	return corrupt, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// view and update translate a closed database into domain.ErrStoreClosed.
func (s *boltStore) view(fn func(tx *bbolt.Tx) error) error {
	return closedErr(s.db.View(fn))
}

func (s *boltStore) update(fn func(tx *bbolt.Tx) error) error {
	return closedErr(s.db.Update(fn))
}

func closedErr(err error) error {
	if errors.Is(err, bberrors.ErrDatabaseNotOpen) {
		return domain.ErrStoreClosed
	}
	return err
}

// --- policy ---

func (s *boltStore) LoadEnabled() (bool, error) {
	var enabled bool
	err := s.view(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketSettings); b != nil {
			enabled = decodeBool(b.Get(keyEnabled))
		}
		return nil
	})
	return enabled, err
}

func (s *boltStore) SaveEnabled(enabled bool) error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Put(keyEnabled, encodeBool(enabled))
	})
}

func (s *boltStore) LoadSchedule() (domain.Schedule, bool, error) {
	var raw []byte
	err := s.view(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketSettings); b != nil {
			if v := b.Get(keySchedule); v != nil {
				raw = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Schedule{}, false, err
	}
	if raw == nil {
		return domain.Schedule{}, false, nil
	}
	sched, err := decodeSchedule(raw)
	if err != nil {
		return domain.Schedule{}, true, err
	}
	return sched, true, nil
}

func (s *boltStore) SaveSchedule(sched domain.Schedule) error {
	v, err := encodeSchedule(sched)
	if err != nil {
		return err
	}
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Put(keySchedule, v)
	})
}

// --- rejection log ---

// AppendRejection writes e under the next bucket sequence and bumps the counter.
func (s *boltStore) AppendRejection(e domain.RejectionEntry) (uint64, error) {
	v, err := encodeRejection(e)
	if err != nil {
		return 0, err
	}
	var count uint64
	err = s.update(func(tx *bbolt.Tx) error {
		lb := tx.Bucket(bucketLog)
		seq, err := lb.NextSequence()
		if err != nil {
			return err
		}
		if err := lb.Put(encodeUint64(seq), v); err != nil {
			return err
		}
		mb := tx.Bucket(bucketMeta)
		count = decodeUint64(mb.Get(keyCount)) + 1
		return mb.Put(keyCount, encodeUint64(count))
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Rejections returns entries in insertion order. Undecodable values are
// skipped; New and RemoveRejections delete them.
func (s *boltStore) Rejections() ([]domain.RejectionEntry, error) {
	var out []domain.RejectionEntry
	err := s.view(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLog)
		if b == nil {
			return nil
		}
		out = make([]domain.RejectionEntry, 0, b.Stats().KeyN)
		return b.ForEach(func(_, v []byte) error {
			e, err := decodeRejection(v)
			if err != nil {
				return nil
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

func (s *boltStore) ClearRejections() error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := deleteBucketsFn(tx, bucketLog); err != nil {
			return err
		}
		if err := ensureBucketsFn(tx); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyCount, encodeUint64(0))
	})
}

// RemoveRejections deletes matching entries, along with any that no longer
// decode, and sets the counter to the number of keys left in the log bucket.
func (s *boltStore) RemoveRejections(match func(domain.RejectionEntry) bool) (uint64, error) {
	var remaining uint64
	err := s.update(func(tx *bbolt.Tx) error {
		lb := tx.Bucket(bucketLog)
		if _, err := purge(lb, match); err != nil {
			return err
		}
		remaining = countKeys(lb)
		return tx.Bucket(bucketMeta).Put(keyCount, encodeUint64(remaining))
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *boltStore) RejectionCount() (uint64, error) {
	var n uint64
	err := s.view(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMeta); b != nil {
			n = decodeUint64(b.Get(keyCount))
		}
		return nil
	})
	return n, err
}

// countKeys walks the bucket; Bucket.Stats does not reflect writes made
// earlier in the same read-write transaction.
func countKeys(b *bbolt.Bucket) uint64 {
	var n uint64
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

// --- allow-list ---

func (s *boltStore) AddAllowed(normalized []string) error {
	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAllowList)
		for _, n := range normalized {
			if n == "" {
				continue
			}
			if err := b.Put([]byte(n), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStore) RemoveAllowed(normalized []string) error {
	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAllowList)
		for _, n := range normalized {
			if n == "" {
				continue
			}
			if err := b.Delete([]byte(n)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Allowed returns the allow-list in ascending order.
func (s *boltStore) Allowed() ([]string, error) {
	var out []string
	err := s.view(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAllowList)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	sort.Strings(out)
	return out, err
}

func (s *boltStore) Stats() state.Stats {
	st := state.Stats{Repaired: s.repaired}
	_ = s.view(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketLog); b != nil {
			st.Rejections = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketAllowList); b != nil {
			st.Allowed = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			st.Counter = decodeUint64(b.Get(keyCount))
		}
		return nil
	})
	return st
}

var _ state.Store = (*boltStore)(nil)
