// Package state keeps the key-value state of a single chain on leveldb.
// State changing calls run one at a time inside DB.Tx and either commit
// completely or leave no trace.
package state

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrReadOnly = errors.New("state: read only transaction")

type DB struct {
	mu  sync.Mutex
	ldb *leveldb.DB
}

// Open open a leveldb at path, an empty path opens an in-memory database
func Open(path string) (*DB, error) {
	var (
		ldb *leveldb.DB
		err error
	)

	if path == "" {
		ldb, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		ldb, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, err
	}

	return &DB{ldb: ldb}, nil
}

func MustOpen(path string) *DB {
	db, err := Open(path)
	if err != nil {
		panic(err)
	}

	return db
}

// OpenMemory in-memory state, mostly for tests
func OpenMemory() *DB {
	return MustOpen("")
}

func (db *DB) Close() error {
	return db.ldb.Close()
}

// Tx run fn in a write transaction, commit if fn returns nil
func (db *DB) Tx(fn func(tx *Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.ldb.OpenTransaction()
	if err != nil {
		return err
	}

	if err := fn(&Tx{tr: tr}); err != nil {
		tr.Discard()
		return err
	}

	return tr.Commit()
}

// View run fn against a consistent snapshot
func (db *DB) View(fn func(tx *Tx) error) error {
	snap, err := db.ldb.GetSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	return fn(&Tx{snap: snap})
}

type Tx struct {
	tr   *leveldb.Transaction
	snap *leveldb.Snapshot
}

func (tx *Tx) ReadOnly() bool {
	return tx.tr == nil
}

// Get returns nil without error when key is missing
func (tx *Tx) Get(key []byte) ([]byte, error) {
	var (
		v   []byte
		err error
	)

	if tx.tr != nil {
		v, err = tx.tr.Get(key, nil)
	} else {
		v, err = tx.snap.Get(key, nil)
	}

	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}

	return v, err
}

func (tx *Tx) Put(key, value []byte) error {
	if tx.tr == nil {
		return ErrReadOnly
	}

	return tx.tr.Put(key, value, nil)
}

func (tx *Tx) Delete(key []byte) error {
	if tx.tr == nil {
		return ErrReadOnly
	}

	return tx.tr.Delete(key, nil)
}

// GetJSON decode the value at key into v, reports whether the key exists
func (tx *Tx) GetJSON(key []byte, v interface{}) (bool, error) {
	data, err := tx.Get(key)
	if err != nil || data == nil {
		return false, err
	}

	return true, json.Unmarshal(data, v)
}

func (tx *Tx) PutJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return tx.Put(key, data)
}

// Iterate walk keys with prefix in order, stop early when fn returns ErrStop
func (tx *Tx) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	var it iterator.Iterator
	if tx.tr != nil {
		it = tx.tr.NewIterator(util.BytesPrefix(prefix), nil)
	} else {
		it = tx.snap.NewIterator(util.BytesPrefix(prefix), nil)
	}
	defer it.Release()

	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			if errors.Is(err, ErrStop) {
				break
			}
			return err
		}
	}

	return it.Error()
}

// ErrStop stops Iterate without error
var ErrStop = errors.New("state: stop iteration")

// Sequence increase and return the counter stored at key
func (tx *Tx) Sequence(key []byte) (uint64, error) {
	var seq uint64
	if _, err := tx.GetJSON(key, &seq); err != nil {
		return 0, err
	}

	seq++
	if err := tx.PutJSON(key, seq); err != nil {
		return 0, err
	}

	return seq, nil
}
