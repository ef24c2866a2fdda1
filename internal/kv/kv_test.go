package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	st, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": newTestSQLite(t),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := st.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, st.Set(ctx, "a", []byte(`{"x":1}`)))
			v, ok, err := st.Get(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"x":1}`, string(v))

			require.NoError(t, st.Set(ctx, "a", []byte(`{"x":2}`)))
			v, _, err = st.Get(ctx, "a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"x":2}`, string(v))

			require.NoError(t, st.Delete(ctx, "a"))
			_, ok, err = st.Get(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting a missing key is not an error.
			assert.NoError(t, st.Delete(ctx, "a"))
		})
	}
}

func TestStore_Keys(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Set(ctx, "cache:b", []byte("1")))
			require.NoError(t, st.Set(ctx, "cache:a", []byte("1")))
			require.NoError(t, st.Set(ctx, "history", []byte("1")))

			keys, err := st.Keys(ctx, "cache:")
			require.NoError(t, err)
			assert.Equal(t, []string{"cache:a", "cache:b"}, keys)
		})
	}
}

func TestStore_UpdateCreateModifyDelete(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := st.Update(ctx, "n", func(old []byte, ok bool) ([]byte, error) {
				assert.False(t, ok)
				return []byte("1"), nil
			})
			require.NoError(t, err)

			err = st.Update(ctx, "n", func(old []byte, ok bool) ([]byte, error) {
				assert.True(t, ok)
				assert.Equal(t, "1", string(old))
				return []byte("2"), nil
			})
			require.NoError(t, err)

			v, _, err := st.Get(ctx, "n")
			require.NoError(t, err)
			assert.Equal(t, "2", string(v))

			err = st.Update(ctx, "n", func([]byte, bool) ([]byte, error) {
				return nil, ErrDelete
			})
			require.NoError(t, err)
			_, ok, err := st.Get(ctx, "n")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_UpdateAbortLeavesValue(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Set(ctx, "k", []byte("keep")))

			boom := errors.New("boom")
			err := st.Update(ctx, "k", func([]byte, bool) ([]byte, error) {
				return []byte("lost"), boom
			})
			assert.ErrorIs(t, err, boom)

			v, _, err := st.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "keep", string(v))
		})
	}
}

func TestStore_UpdateConcurrentNoLostUpdates(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const workers = 20

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := st.Update(ctx, "counter", func(old []byte, ok bool) ([]byte, error) {
						n := 0
						if ok {
							n, _ = strconv.Atoi(string(old))
						}
						return []byte(fmt.Sprint(n + 1)), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			v, _, err := st.Get(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint(workers), string(v))
		})
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", []byte("abc")))

	v, _, _ := m.Get(ctx, "k")
	v[0] = 'z'

	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
