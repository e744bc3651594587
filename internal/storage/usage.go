package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const usageBucket = "usage"

// UsageRecord tracks how often and how recently an entry was published
type UsageRecord struct {
	LastUsed time.Time `json:"lastUsed"`
	UseCount int       `json:"useCount"`
}

// UsageIndex persists UsageRecords keyed by entry id in a bbolt database
type UsageIndex struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// OpenUsageIndex opens or creates the usage database at path
func OpenUsageIndex(path string, logger *zap.Logger) (*UsageIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(usageBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	logger.Debug("Usage index opened", zap.String("db_path", path))
	return &UsageIndex{db: db, logger: logger}, nil
}

// Touch records one use of id at the given time
func (u *UsageIndex) Touch(id uuid.UUID, at time.Time) (UsageRecord, error) {
	var rec UsageRecord
	err := u.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		if v := b.Get(id[:]); v != nil {
			if err := json.Unmarshal(v, &rec); err != nil {
				u.logger.Warn("Discarding unreadable usage record",
					zap.String("id", id.String()), zap.Error(err))
				rec = UsageRecord{}
			}
		}
		rec.LastUsed = at.UTC()
		rec.UseCount++

		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal usage record: %w", err)
		}
		return b.Put(id[:], encoded)
	})
	if err != nil {
		return UsageRecord{}, err
	}
	return rec, nil
}

// Get returns the record for id; ok is false when the entry was never used
func (u *UsageIndex) Get(id uuid.UUID) (rec UsageRecord, ok bool, err error) {
	err = u.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(usageBucket)).Get(id[:])
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &rec)
	})
	return rec, ok, err
}

// All returns every record in the index
func (u *UsageIndex) All() (map[uuid.UUID]UsageRecord, error) {
	records := make(map[uuid.UUID]UsageRecord)
	err := u.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(usageBucket)).ForEach(func(k, v []byte) error {
			id, err := uuid.FromBytes(k)
			if err != nil {
				return nil
			}
			var rec UsageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			records[id] = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Remove deletes the records of the given ids
func (u *UsageIndex) Remove(ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return u.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		for _, id := range ids {
			if err := b.Delete(id[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Prune drops records whose id is not in keep and returns how many were removed
func (u *UsageIndex) Prune(keep map[uuid.UUID]struct{}) (int, error) {
	removed := 0
	err := u.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(usageBucket))
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			id, err := uuid.FromBytes(k)
			if err == nil {
				if _, ok := keep[id]; ok {
					return nil
				}
			}
			stale = append(stale, append([]byte(nil), k...))
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the underlying database
func (u *UsageIndex) Close() error {
	return u.db.Close()
}
