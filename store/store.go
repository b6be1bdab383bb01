package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/widget"
)

// Buckets
var (
	BucketFavourites = []byte("favourites") // id -> favourite JSON
	BucketSnapshots  = []byte("snapshots")  // favourite id -> Snapshot JSON
)

// ErrNotFound is returned when no record exists under the requested id.
var ErrNotFound = errors.New("store: not found")

type DB struct{ *bbolt.DB }

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{BucketFavourites, BucketSnapshots} {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

func itob(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

// AddFavourite stores f. A zero ID is replaced by the next free id; the
// stored favourite is returned.
func (db *DB) AddFavourite(f favourite.RouteStop) (favourite.RouteStop, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketFavourites)
		if f.ID <= 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			f.ID = int(seq)
		} else if uint64(f.ID) > b.Sequence() {
			if err := b.SetSequence(uint64(f.ID)); err != nil {
				return err
			}
		}
		v, err := json.Marshal(f)
		if err != nil {
			return err
		}
		return b.Put(itob(f.ID), v)
	})
	if err != nil {
		return favourite.RouteStop{}, fmt.Errorf("add favourite: %w", err)
	}
	return f, nil
}

// Favourite returns the favourite stored under id.
func (db *DB) Favourite(id int) (favourite.RouteStop, error) {
	var f favourite.RouteStop
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketFavourites).Get(itob(id))
		if v == nil {
			return fmt.Errorf("favourite %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(v, &f)
	})
	return f, err
}

// Favourites returns every stored favourite in id order.
func (db *DB) Favourites() ([]favourite.RouteStop, error) {
	var out []favourite.RouteStop
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketFavourites).ForEach(func(_, v []byte) error {
			var f favourite.RouteStop
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			out = append(out, f)
			return nil
		})
	})
	return out, err
}

// DeleteFavourite removes a favourite and its snapshot.
func (db *DB) DeleteFavourite(id int) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketFavourites)
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("favourite %d: %w", id, ErrNotFound)
		}
		if err := b.Delete(itob(id)); err != nil {
			return err
		}
		return tx.Bucket(BucketSnapshots).Delete(itob(id))
	})
}

// Snapshot is the last precomputed widget payload of a favourite.
type Snapshot struct {
	FavouriteID int       `json:"favouriteId"`
	Fingerprint string    `json:"fingerprint"`
	Payload     []byte    `json:"payload"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PutSnapshot stores payload as the snapshot of favourite id and reports
// whether it differs from the stored one. An unchanged payload keeps the
// previous UpdatedAt.
func (db *DB) PutSnapshot(id int, payload []byte, at time.Time) (bool, error) {
	fp := widget.Fingerprint(payload)
	changed := true
	err := db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketSnapshots)
		if v := b.Get(itob(id)); v != nil {
			var old Snapshot
			if err := json.Unmarshal(v, &old); err == nil && old.Fingerprint == fp {
				changed = false
				return nil
			}
		}
		v, err := json.Marshal(Snapshot{FavouriteID: id, Fingerprint: fp, Payload: payload, UpdatedAt: at.UTC()})
		if err != nil {
			return err
		}
		return b.Put(itob(id), v)
	})
	if err != nil {
		return false, fmt.Errorf("put snapshot %d: %w", id, err)
	}
	return changed, nil
}

// Snapshot returns the stored snapshot of favourite id.
func (db *DB) Snapshot(id int) (Snapshot, error) {
	var s Snapshot
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketSnapshots).Get(itob(id))
		if v == nil {
			return fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(v, &s)
	})
	return s, err
}
