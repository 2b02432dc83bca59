package filestore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/filestore"
	"github.com/couchcryptid/critical-events-service/internal/filestore/filestoretest"
	"github.com/couchcryptid/critical-events-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCachedStore_ZeroDisables(t *testing.T) {
	inner := filestoretest.NewMemoryStore(nil)
	store := filestore.NewCachedStore(inner, 0, observability.NewMetricsForTesting())

	assert.Same(t, inner, store)
}

func TestCachedStore_GetHitsCache(t *testing.T) {
	ctx := context.Background()
	inner := filestoretest.NewMemoryStore(nil)
	metrics := observability.NewMetricsForTesting()
	store := filestore.NewCachedStore(inner, 4, metrics)

	require.NoError(t, store.Put(ctx, "royatali/a.json", []byte("[]"), "application/json"))

	for range 3 {
		body, err := store.Get(ctx, "royatali/a.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), body)
	}

	assert.Equal(t, 1, inner.Calls["get"], "only the first read reaches the store")
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")), 0)
}

func TestCachedStore_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := filestoretest.NewMemoryStore(nil)
	store := filestore.NewCachedStore(inner, 4, observability.NewMetricsForTesting())

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), ""))
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "k", []byte("v2"), ""))
	body, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), body)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Put(ctx, "a", []byte("x"), ""))
	_, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, store.DeleteMany(ctx, []string{"a"}))
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachedStore_ErrorsAndEmptyBodiesAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := filestoretest.NewMemoryStore(nil)
	store := filestore.NewCachedStore(inner, 4, observability.NewMetricsForTesting())

	require.NoError(t, inner.Put(ctx, "empty", nil, ""))
	_, err := store.Get(ctx, "empty")
	require.NoError(t, err)
	_, err = store.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls["get"])

	inner.Err = errors.New("timeout")
	_, err = store.Get(ctx, "missing")
	require.Error(t, err)
	inner.Err = nil
	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachedStore_ForwardsReadiness(t *testing.T) {
	inner := filestoretest.NewMemoryStore(nil)
	store := filestore.NewCachedStore(inner, 4, observability.NewMetricsForTesting())
	rc, ok := store.(interface{ CheckReadiness(context.Context) error })
	require.True(t, ok)

	require.NoError(t, rc.CheckReadiness(context.Background()))
	inner.Err = errors.New("bucket gone")
	require.EqualError(t, rc.CheckReadiness(context.Background()), "bucket gone")
}

func TestService_DownloadUsesCache(t *testing.T) {
	ctx := context.Background()
	inner := filestoretest.NewMemoryStore(nil)
	metrics := observability.NewMetricsForTesting()
	svc := filestore.NewService(filestore.NewCachedStore(inner, 4, metrics), testPrefix, discardLogger(), metrics)

	_, err := svc.UploadJSON(ctx, &filestore.UploadedFile{Name: "d.json", ContentType: "application/json", Data: []byte(validDayDoc)})
	require.NoError(t, err)

	for range 2 {
		processed, err := svc.DownloadAndProcess(ctx, "d.json", "json")
		require.NoError(t, err)
		require.Len(t, processed.DaysList, 1)
	}
	assert.Equal(t, 1, inner.Calls["get"])
}

// pausingStore holds the first Get after it has read from the inner store
// until release is closed.
type pausingStore struct {
	filestore.ObjectStore
	once    sync.Once
	fetched chan struct{}
	release chan struct{}
}

func (p *pausingStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := p.ObjectStore.Get(ctx, key)
	p.once.Do(func() {
		close(p.fetched)
		<-p.release
	})
	return body, err
}

func TestCachedStore_WriteDuringReadIsNotShadowed(t *testing.T) {
	ctx := context.Background()
	inner := filestoretest.NewMemoryStore(nil)
	require.NoError(t, inner.Put(ctx, "k", []byte("old"), ""))

	paused := &pausingStore{ObjectStore: inner, fetched: make(chan struct{}), release: make(chan struct{})}
	store := filestore.NewCachedStore(paused, 4, observability.NewMetricsForTesting())

	done := make(chan []byte)
	go func() {
		body, _ := store.Get(ctx, "k")
		done <- body
	}()

	<-paused.fetched
	require.NoError(t, store.Put(ctx, "k", []byte("new"), ""))
	close(paused.release)
	assert.Equal(t, []byte("old"), <-done)

	body, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), body)
}
