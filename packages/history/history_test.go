package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite://" + filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTemp(t)
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id1, err := store.Record(Entry{
		SentAt:        sent,
		Method:        "GET",
		URL:           "http://localhost:8000/",
		Status:        200,
		Duration:      42 * time.Millisecond,
		ResponseBytes: 28,
	})
	require.NoError(t, err)

	id2, err := store.Record(Entry{
		Method:    "POST",
		URL:       "http://localhost:8000/api/forgotpassword",
		ErrorKind: "Request failed!",
		Error:     "connection refused",
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, id2, entries[0].ID)
	assert.True(t, entries[0].Failed())
	assert.Equal(t, "Request failed!", entries[0].ErrorKind)
	assert.False(t, entries[0].SentAt.IsZero())

	first := entries[1]
	assert.Equal(t, "GET", first.Method)
	assert.Equal(t, 200, first.Status)
	assert.Equal(t, 42*time.Millisecond, first.Duration)
	assert.Equal(t, 28, first.ResponseBytes)
	assert.True(t, sent.Equal(first.SentAt))
	assert.False(t, first.Failed())

	limited, err := store.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, id2, limited[0].ID)
}

func TestCountAndClear(t *testing.T) {
	store := openTemp(t)

	for i := 0; i < 3; i++ {
		_, err := store.Record(Entry{Method: "GET", URL: "/"})
		require.NoError(t, err)
	}

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.Clear())
	n, err = store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQuery(t *testing.T) {
	store := openTemp(t)
	_, err := store.Record(Entry{Method: "GET", URL: "/a", Status: 200})
	require.NoError(t, err)
	_, err = store.Record(Entry{Method: "GET", URL: "/b", Status: 404})
	require.NoError(t, err)

	result, err := store.Query("SELECT url, status FROM exchanges WHERE status >= 400")
	require.NoError(t, err)
	assert.Equal(t, []string{"url", "status"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "/b", result.Rows[0]["url"])
	assert.Equal(t, int64(404), result.Rows[0]["status"])

	_, err = store.Query("DELETE FROM exchanges")
	assert.ErrorIs(t, err, ErrNotReadOnly)

	_, err = store.Query("SELECT * FROM nope")
	assert.ErrorContains(t, err, "query failed")
}

func TestOpen_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open("sqlite:" + path)
	require.NoError(t, err)
	_, err = store.Record(Entry{Method: "GET", URL: "/"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "sqlite://./h.db", want: "./h.db"},
		{input: "sqlite:h.db", want: "h.db"},
		{input: " /tmp/h.db ", want: "/tmp/h.db"},
		{input: "postgres://user@host/db", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseConnectionString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
