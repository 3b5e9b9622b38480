// Package manifest records file digests in a storage backend so files can be
// checked against them later.
package manifest

import (
	"encoding/binary"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"primesha.org/primesha/database/storage"
	"primesha.org/primesha/database/storage/ldbstorage"
	"primesha.org/primesha/logging"
	"primesha.org/primesha/sha256"
)

// recordLen is digest(32) | size(8) | modtime unix nanos(8), big-endian.
const recordLen = sha256.Size + 8 + 8

var recordPrefix = []byte("d/")

var (
	ErrRecordNotFound = errors.New("no digest recorded for path")
	ErrCorruptRecord  = errors.New("corrupt digest record")
)

// Record is the digest of one file at the time it was recorded.
type Record struct {
	Path    string
	Digest  sha256.Digest
	Size    int64
	ModTime time.Time
}

func (r *Record) encode() []byte {
	buf := make([]byte, recordLen)
	copy(buf, r.Digest[:])
	binary.BigEndian.PutUint64(buf[sha256.Size:], uint64(r.Size))
	binary.BigEndian.PutUint64(buf[sha256.Size+8:], uint64(r.ModTime.UnixNano()))
	return buf
}

func decodeRecord(path string, buf []byte) (Record, error) {
	if len(buf) != recordLen {
		return Record{}, errors.Wrapf(ErrCorruptRecord, "%s: %d bytes", path, len(buf))
	}
	r := Record{Path: path}
	copy(r.Digest[:], buf)
	r.Size = int64(binary.BigEndian.Uint64(buf[sha256.Size:]))
	r.ModTime = time.Unix(0, int64(binary.BigEndian.Uint64(buf[sha256.Size+8:])))
	return r, nil
}

func recordKey(path string) []byte {
	return append(append([]byte(nil), recordPrefix...), filepath.Clean(path)...)
}

// Store is a digest manifest. It is safe for concurrent use as long as the
// backend is.
type Store struct {
	db storage.Storage
}

// New wraps an opened backend.
func New(db storage.Storage) *Store {
	return &Store{db: db}
}

// Open opens or creates the manifest under dir with the given backend type.
func Open(dbType, dir string) (*Store, error) {
	if dbType == ldbstorage.TypeMemDB {
		db, err := storage.CreateStorage(dbType, dir)
		if err != nil {
			return nil, err
		}
		return New(db), nil
	}
	if err := storage.CheckCompatibility(dbType, dir); err != nil {
		return nil, err
	}
	db, err := storage.CreateStorage(dbType, filepath.Join(dir, "db"))
	if err != nil {
		return nil, err
	}
	logging.VPrint(logging.DEBUG, "digest store opened", logging.LogFormat{"dir": dir, "db_type": dbType})
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put records r, replacing any earlier record for the same path.
func (s *Store) Put(r Record) error {
	return errors.Wrapf(s.db.Put(recordKey(r.Path), r.encode()), "record %s", r.Path)
}

// PutBatch records rs atomically.
func (s *Store) PutBatch(rs []Record) error {
	batch := s.db.NewBatch()
	defer batch.Release()
	for i := range rs {
		if err := batch.Put(recordKey(rs[i].Path), rs[i].encode()); err != nil {
			return errors.Wrapf(err, "record %s", rs[i].Path)
		}
	}
	return s.db.Write(batch)
}

// Get returns the record of path, or ErrRecordNotFound.
func (s *Store) Get(path string) (Record, error) {
	path = filepath.Clean(path)
	buf, err := s.db.Get(recordKey(path))
	if err == storage.ErrNotFound {
		return Record{}, errors.Wrap(ErrRecordNotFound, path)
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "read record %s", path)
	}
	return decodeRecord(path, buf)
}

func (s *Store) Delete(path string) error {
	return s.db.Delete(recordKey(path))
}

// List returns every record ordered by path.
func (s *Store) List() ([]Record, error) {
	it := s.db.NewIterator(storage.BytesPrefix(recordPrefix))
	defer it.Release()

	var records []Record
	for it.Next() {
		path := string(it.Key()[len(recordPrefix):])
		r, err := decodeRecord(path, it.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, it.Error()
}

// Verify reports whether d matches the digest recorded for path.
func (s *Store) Verify(path string, d sha256.Digest) (bool, error) {
	r, err := s.Get(path)
	if err != nil {
		return false, err
	}
	return r.Digest == d, nil
}
