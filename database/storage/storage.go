// Package storage defines the key/value backend of the digest store and a
// registry of drivers implementing it.
package storage

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	// StorageV1
	//		- initial, fixed 48-byte digest records
	StorageV1 int32 = 1 + iota

	CurrentStorageVersion int32 = StorageV1
)

// versionFilename sits next to the database files and records the layout.
const versionFilename = ".ver"

var (
	ErrDbUnknownType       = errors.New("non-existent database type")
	ErrInvalidKey          = errors.New("invalid key")
	ErrInvalidBatch        = errors.New("invalid batch")
	ErrNotFound            = errors.New("not found")
	ErrIncompatibleStorage = errors.New("incompatible storage")
)

// Range is a key range.
type Range struct {
	// Start of the key range, include in the range.
	Start []byte

	// Limit of the key range, not include in the range.
	Limit []byte
}

// IsPrefix reports whether r covers exactly the keys sharing r.Start as prefix.
func (r *Range) IsPrefix() bool {
	return bytes.Equal(BytesPrefix(r.Start).Limit, r.Limit)
}

// BytesPrefix returns the range of all keys starting with prefix.
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if c := prefix[i]; c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &Range{Start: prefix, Limit: limit}
}

type Iterator interface {
	Release()
	Error() error
	Seek(key []byte) bool
	Next() bool
	Key() []byte
	Value() []byte
}

type Batch interface {
	Release()
	Put(key, value []byte) error
	Delete(key []byte) error
	Reset()
}

type Storage interface {
	Close() error
	// Get returns ErrNotFound if key not exist
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Write(batch Batch) error
	NewBatch() Batch
	NewIterator(slice *Range) Iterator
}

type StorageDriver struct {
	DbType        string
	CreateStorage func(storPath string, args ...interface{}) (Storage, error)
	OpenStorage   func(storPath string, args ...interface{}) (Storage, error)
}

var (
	driversMtx sync.RWMutex
	drivers    []StorageDriver
)

// RegisterDriver adds a driver; registering a db type twice keeps the first.
func RegisterDriver(instance StorageDriver) {
	driversMtx.Lock()
	defer driversMtx.Unlock()
	for _, drv := range drivers {
		if drv.DbType == instance.DbType {
			return
		}
	}
	drivers = append(drivers, instance)
}

func lookupDriver(dbtype string) (StorageDriver, error) {
	driversMtx.RLock()
	defer driversMtx.RUnlock()
	for _, drv := range drivers {
		if drv.DbType == dbtype {
			return drv, nil
		}
	}
	return StorageDriver{}, errors.Wrapf(ErrDbUnknownType, "%q", dbtype)
}

// CreateStorage creates and opens a new database.
func CreateStorage(dbtype, dbpath string, args ...interface{}) (Storage, error) {
	drv, err := lookupDriver(dbtype)
	if err != nil {
		return nil, err
	}
	return drv.CreateStorage(dbpath, args...)
}

// OpenStorage opens an existing database.
func OpenStorage(dbtype, dbpath string, args ...interface{}) (Storage, error) {
	drv, err := lookupDriver(dbtype)
	if err != nil {
		return nil, err
	}
	return drv.OpenStorage(dbpath, args...)
}

// RegisteredDbTypes returns the registered db types, sorted.
func RegisteredDbTypes() []string {
	driversMtx.RLock()
	defer driversMtx.RUnlock()
	types := make([]string, 0, len(drivers))
	for _, drv := range drivers {
		types = append(types, drv.DbType)
	}
	sort.Strings(types)
	return types
}

type storageVersion struct {
	Dbtype  string `json:"dbtype,omitempty"`
	Version int32  `json:"version,omitempty"`
}

func WriteVersion(path, dbtype string, version int32) error {
	b, err := json.Marshal(storageVersion{Dbtype: dbtype, Version: version})
	if err != nil {
		return err
	}
	return errors.Wrapf(ioutil.WriteFile(path, b, 0600), "write version file %s", path)
}

func ReadVersion(path string) (string, int32, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	var ver storageVersion
	if err = json.Unmarshal(b, &ver); err != nil {
		return "", 0, errors.Wrapf(err, "decode version file %s", path)
	}
	return ver.Dbtype, ver.Version, nil
}

// CheckCompatibility writes the version file of a fresh store directory, or
// checks an existing one matches dbtype and the current layout.
func CheckCompatibility(dbtype, storPath string) error {
	verFile := filepath.Join(storPath, versionFilename)
	fi, err := os.Stat(verFile)
	if os.IsNotExist(err) {
		if err = os.MkdirAll(storPath, 0700); err != nil {
			return errors.Wrapf(err, "create store directory %s", storPath)
		}
		return WriteVersion(verFile, dbtype, CurrentStorageVersion)
	}
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return errors.Errorf("version file %s is a directory", verFile)
	}

	typ, ver, err := ReadVersion(verFile)
	if err != nil {
		return err
	}
	if ver != CurrentStorageVersion || typ != dbtype {
		return errors.Wrapf(ErrIncompatibleStorage, "found %s v%d, want %s v%d", typ, ver, dbtype, CurrentStorageVersion)
	}
	return nil
}
