package receipt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	recordBucket   = "records"
	hashBucket     = "image_hashes"
	settingsBucket = "settings"

	baseWorthKey = "base_worth"
)

var (
	// ErrRecordNotFound is returned when a record id or image hash has no
	// stored record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateImage is returned when an insert would violate the
	// image-hash uniqueness constraint. The service checks the hash
	// before scanning; this is the backstop against two near-simultaneous
	// uploads of the same screenshot.
	ErrDuplicateImage = errors.New("image already recorded")
)

// Store defines the interface for record persistence.
type Store interface {
	// InsertRecord assigns an id and creation time and stores the record.
	InsertRecord(rec *Record) error

	// GetRecord retrieves a record by id.
	GetRecord(id uint64) (*Record, error)

	// UpdateRecord overwrites an existing record.
	UpdateRecord(rec *Record) error

	// DeleteRecord removes a record and its hash index entry.
	DeleteRecord(id uint64) error

	// ListRecords returns all records in insertion order.
	ListRecords() ([]*Record, error)

	// ListRecordsByDatePrefix returns records whose date starts with the
	// given prefix ("2026" for a year, "2026-02" for a month).
	ListRecordsByDatePrefix(prefix string) ([]*Record, error)

	// FindRecordByImageHash returns the record carrying the given image
	// hash, or ErrRecordNotFound.
	FindRecordByImageHash(hash string) (*Record, error)

	// GetBaseWorth and SetBaseWorth read and write the net-worth anchor.
	GetBaseWorth() (float64, error)
	SetBaseWorth(v float64) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the Store interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{recordBucket, hashBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// InsertRecord stores a new record. The hash index put and the record put
// share one transaction, so a concurrent duplicate upload cannot slip
// between the check and the write.
func (b *BoltDB) InsertRecord(rec *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		hashes := tx.Bucket([]byte(hashBucket))

		if rec.ImageHash != "" && hashes.Get([]byte(rec.ImageHash)) != nil {
			return ErrDuplicateImage
		}

		id, err := records.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating record id: %w", err)
		}
		rec.ID = id
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		if err := records.Put(itob(id), data); err != nil {
			return fmt.Errorf("storing record: %w", err)
		}
		if rec.ImageHash != "" {
			if err := hashes.Put([]byte(rec.ImageHash), itob(id)); err != nil {
				return fmt.Errorf("indexing image hash: %w", err)
			}
		}
		return nil
	})
}

// GetRecord retrieves a record by id
func (b *BoltDB) GetRecord(id uint64) (*Record, error) {
	var rec *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(recordBucket)).Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}
		rec = &Record{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRecord overwrites an existing record in place.
func (b *BoltDB) UpdateRecord(rec *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		if records.Get(itob(rec.ID)) == nil {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, rec.ID)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return records.Put(itob(rec.ID), data)
	})
}

// DeleteRecord removes a record and its hash index entry.
func (b *BoltDB) DeleteRecord(id uint64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		data := records.Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshaling record: %w", err)
		}
		if rec.ImageHash != "" {
			if err := tx.Bucket([]byte(hashBucket)).Delete([]byte(rec.ImageHash)); err != nil {
				return fmt.Errorf("removing hash index: %w", err)
			}
		}
		return records.Delete(itob(id))
	})
}

// ListRecords returns all records in insertion order.
func (b *BoltDB) ListRecords() ([]*Record, error) {
	var records []*Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecordsByDatePrefix returns records for a month ("2026-02") or a
// year ("2026"). Record dates are normalized YYYY-MM-DD strings, so a
// prefix match is a range match.
func (b *BoltDB) ListRecordsByDatePrefix(prefix string) ([]*Record, error) {
	all, err := b.ListRecords()
	if err != nil {
		return nil, err
	}
	matched := make([]*Record, 0, len(all))
	for _, rec := range all {
		if strings.HasPrefix(rec.Date, prefix) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// FindRecordByImageHash looks a record up through the hash index.
func (b *BoltDB) FindRecordByImageHash(hash string) (*Record, error) {
	var id uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(hashBucket)).Get([]byte(hash))
		if data == nil {
			return fmt.Errorf("%w: image hash %s", ErrRecordNotFound, hash)
		}
		id = binary.BigEndian.Uint64(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.GetRecord(id)
}

// GetBaseWorth returns the stored net-worth anchor, zero when unset.
func (b *BoltDB) GetBaseWorth() (float64, error) {
	var base float64
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(settingsBucket)).Get([]byte(baseWorthKey))
		if data == nil {
			return nil
		}
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("parsing base worth: %w", err)
		}
		base = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return base, nil
}

// SetBaseWorth stores the net-worth anchor.
func (b *BoltDB) SetBaseWorth(v float64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		value := strconv.FormatFloat(v, 'f', -1, 64)
		return tx.Bucket([]byte(settingsBucket)).Put([]byte(baseWorthKey), []byte(value))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// itob returns an 8-byte big-endian representation of v, which keeps the
// record bucket ordered by insertion.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
