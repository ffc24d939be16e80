package bbolt_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panpapadopoulos/subtrack/storage"
	"github.com/panpapadopoulos/subtrack/storage/bbolt"
)

func openStore(t *testing.T) *bbolt.Store {
	t.Helper()
	s, err := bbolt.NewStoreFromFile(filepath.Join(t.TempDir(), "subtrack.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(storage.DatasetKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openStore(t)
	doc := []byte(`{"jobs":[{"id":"j-1"}],"payments":[]}`)
	require.NoError(t, s.Put(storage.DatasetKey, doc))

	got, err := s.Get(storage.DatasetKey)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestPutOverwrites(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Put("k", []byte("first")))
	require.NoError(t, s.Put("k", []byte("second")))

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestValueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subtrack.db")

	s, err := bbolt.NewStoreFromFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(storage.DatasetKey, []byte(`{"jobs":[],"payments":[]}`)))
	require.NoError(t, s.Close())

	s, err = bbolt.NewStoreFromFile(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(storage.DatasetKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"jobs":[],"payments":[]}`), got)
}
