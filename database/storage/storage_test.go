package storage_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"primesha.org/primesha/database/storage"
	_ "primesha.org/primesha/database/storage/ldbstorage"
)

func newStorage(t *testing.T, dbtype string) storage.Storage {
	dir, err := ioutil.TempDir("", "primesha-storage")
	require.NoError(t, err)
	db, err := storage.CreateStorage(dbtype, filepath.Join(dir, "db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(dir)
	})
	return db
}

func TestAll(t *testing.T) {
	types := storage.RegisteredDbTypes()
	require.Equal(t, []string{"leveldb", "memdb"}, types)
	for _, tp := range types {
		t.Run(tp, func(t *testing.T) {
			t.Run("PutGet", func(t *testing.T) { testPutGet(t, newStorage(t, tp)) })
			t.Run("Delete", func(t *testing.T) { testDelete(t, newStorage(t, tp)) })
			t.Run("Batch", func(t *testing.T) { testBatch(t, newStorage(t, tp)) })
			t.Run("Iterator", func(t *testing.T) { testIterator(t, newStorage(t, tp)) })
		})
	}
}

func testPutGet(t *testing.T, db storage.Storage) {
	require.NoError(t, db.Put([]byte("a123"), []byte("a123")))
	require.NoError(t, db.Put([]byte("novalue"), nil))
	assert.Equal(t, storage.ErrInvalidKey, db.Put(nil, []byte("value")))

	tests := []struct {
		key    string
		expect string
		has    bool
		err    error
	}{
		{"a123", "a123", true, nil},
		{"novalue", "", true, nil},
		{"missing", "", false, storage.ErrNotFound},
		{"", "", false, storage.ErrNotFound},
	}
	for _, test := range tests {
		value, err := db.Get([]byte(test.key))
		assert.Equal(t, test.err, err, "get %q", test.key)
		assert.Equal(t, test.expect, string(value), "get %q", test.key)

		has, err := db.Has([]byte(test.key))
		assert.NoError(t, err)
		assert.Equal(t, test.has, has, "has %q", test.key)
	}

	require.NoError(t, db.Put([]byte("a123"), []byte("overwritten")))
	value, err := db.Get([]byte("a123"))
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(value))
}

func testDelete(t *testing.T, db storage.Storage) {
	require.NoError(t, db.Put([]byte("b456"), []byte("b456")))
	assert.NoError(t, db.Delete([]byte("missing")))
	assert.NoError(t, db.Delete([]byte("b456")))
	has, err := db.Has([]byte("b456"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func testBatch(t *testing.T, db storage.Storage) {
	require.NoError(t, db.Put([]byte("gone"), []byte("x")))

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, batch.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, batch.Delete([]byte("gone")))
	assert.Equal(t, storage.ErrInvalidKey, batch.Put(nil, nil))
	assert.Equal(t, storage.ErrInvalidKey, batch.Delete(nil))
	require.NoError(t, db.Write(batch))

	for _, k := range []string{"k1", "k2"} {
		has, _ := db.Has([]byte(k))
		assert.True(t, has, k)
	}
	has, _ := db.Has([]byte("gone"))
	assert.False(t, has)

	batch.Reset()
	require.NoError(t, batch.Put([]byte("k3"), []byte("v3")))
	batch.Reset()
	require.NoError(t, db.Write(batch))
	has, _ = db.Has([]byte("k3"))
	assert.False(t, has)

	batch.Release()
	assert.Equal(t, storage.ErrInvalidBatch, db.Write(batch))
}

func testIterator(t *testing.T, db storage.Storage) {
	for _, k := range []string{"d/a", "d/b", "d/c", "e/a", "c/z"} {
		require.NoError(t, db.Put([]byte(k), []byte("v-"+k)))
	}

	it := db.NewIterator(storage.BytesPrefix([]byte("d/")))
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, "v-"+string(it.Key()), string(it.Value()))
	}
	assert.NoError(t, it.Error())
	it.Release()
	assert.Equal(t, []string{"d/a", "d/b", "d/c"}, keys)

	it = db.NewIterator(nil)
	require.True(t, it.Seek([]byte("d/b")))
	assert.Equal(t, "d/b", string(it.Key()))
	count := 1
	for it.Next() {
		count++
	}
	it.Release()
	assert.Equal(t, 3, count)
}

func TestBytesPrefix(t *testing.T) {
	r := storage.BytesPrefix([]byte("d/"))
	assert.Equal(t, []byte("d0"), r.Limit)
	assert.True(t, r.IsPrefix())

	r = storage.BytesPrefix([]byte{0x01, 0xff})
	assert.Equal(t, []byte{0x02}, r.Limit)

	r = storage.BytesPrefix([]byte{0xff, 0xff})
	assert.Nil(t, r.Limit)

	r = &storage.Range{Start: []byte("a"), Limit: []byte("z")}
	assert.False(t, r.IsPrefix())
}

func TestUnknownDbType(t *testing.T) {
	_, err := storage.CreateStorage("rocksdb", "whatever")
	assert.Equal(t, storage.ErrDbUnknownType, errors.Cause(err))
	_, err = storage.OpenStorage("rocksdb", "whatever")
	assert.Equal(t, storage.ErrDbUnknownType, errors.Cause(err))
}

func TestCheckCompatibility(t *testing.T) {
	dir, err := ioutil.TempDir("", "primesha-ver")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	storPath := filepath.Join(dir, "store")

	require.NoError(t, storage.CheckCompatibility("leveldb", storPath))
	typ, ver, err := storage.ReadVersion(filepath.Join(storPath, ".ver"))
	require.NoError(t, err)
	assert.Equal(t, "leveldb", typ)
	assert.Equal(t, storage.CurrentStorageVersion, ver)

	assert.NoError(t, storage.CheckCompatibility("leveldb", storPath))
	err = storage.CheckCompatibility("memdb", storPath)
	assert.Equal(t, storage.ErrIncompatibleStorage, errors.Cause(err))
}
