package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qiblaapi/internal/repository"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := New(filepath.Join(t.TempDir(), "data", "email_index.json"))
	require.NoError(t, err)
	return x
}

func TestIndex_Lookup_MissingFile(t *testing.T) {
	x := newTestIndex(t)

	_, err := x.Lookup(context.Background(), "a@x.com")

	assert.ErrorIs(t, err, repository.ErrNoIndex)
}

func TestIndex_AssociateAndLookup(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t)

	require.NoError(t, x.Associate(ctx, "a@x.com", "1700000000000-a.zip"))

	name, err := x.Lookup(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-a.zip", name)

	_, err = x.Lookup(ctx, "b@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIndex_Associate_OverwritesAndKeepsOthers(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t)

	require.NoError(t, x.Associate(ctx, "a@x.com", "1-first.zip"))
	require.NoError(t, x.Associate(ctx, "b@x.com", "2-other.zip"))
	require.NoError(t, x.Associate(ctx, "a@x.com", "3-second.zip"))

	name, err := x.Lookup(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "3-second.zip", name)

	name, err = x.Lookup(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "2-other.zip", name)

	data, err := os.ReadFile(x.Path())
	require.NoError(t, err)
	var onDisk map[string]string
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, map[string]string{"a@x.com": "3-second.zip", "b@x.com": "2-other.zip"}, onDisk)
}

func TestIndex_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t)

	require.NoError(t, x.Associate(ctx, "  A@X.com ", "1-a.zip"))

	name, err := x.Lookup(ctx, "a@x.COM")
	require.NoError(t, err)
	assert.Equal(t, "1-a.zip", name)
}

func TestIndex_EmptyFileIsEmptyMapping(t *testing.T) {
	x := newTestIndex(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(x.Path()), 0o750))
	require.NoError(t, os.WriteFile(x.Path(), nil, 0o640))

	_, err := x.Lookup(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, x.Associate(context.Background(), "a@x.com", "1-a.zip"))
}

func TestIndex_NullFile(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Dir(x.Path()), 0o750))
	require.NoError(t, os.WriteFile(x.Path(), []byte("null"), 0o640))

	_, err := x.Lookup(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NotPanics(t, func() {
		require.NoError(t, x.Associate(ctx, "a@x.com", "1-a.zip"))
	})

	name, err := x.Lookup(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1-a.zip", name)
}

func TestIndex_CorruptFile(t *testing.T) {
	x := newTestIndex(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(x.Path()), 0o750))
	require.NoError(t, os.WriteFile(x.Path(), []byte("{not json"), 0o640))

	_, err := x.Lookup(context.Background(), "a@x.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	err = x.Associate(context.Background(), "a@x.com", "1-a.zip")
	assert.Error(t, err, "a corrupt index must not be silently replaced")
}

func TestIndex_ConcurrentAssociateLosesNothing(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, x.Associate(ctx, fmt.Sprintf("user%d@x.com", i), fmt.Sprintf("%d-f.zip", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		name, err := x.Lookup(ctx, fmt.Sprintf("user%d@x.com", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d-f.zip", i), name)
	}
}

func TestIndex_SharedFileAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx.json")
	a, err := New(path)
	require.NoError(t, err)
	b, err := New(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, a.Associate(ctx, fmt.Sprintf("a%d@x.com", i), "a.zip"))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Associate(ctx, fmt.Sprintf("b%d@x.com", i), "b.zip"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		_, err := a.Lookup(ctx, fmt.Sprintf("b%d@x.com", i))
		assert.NoError(t, err)
		_, err = b.Lookup(ctx, fmt.Sprintf("a%d@x.com", i))
		assert.NoError(t, err)
	}
}

func TestIndex_CanceledContext(t *testing.T) {
	x := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, x.Associate(ctx, "a@x.com", "1-a.zip"), context.Canceled)
	_, err := x.Lookup(ctx, "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
