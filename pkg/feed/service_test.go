package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const edsBody = `[{"features":[
	{"geometry":{"type":"LineString","coordinates":[[32.52,37.98],[32.53,37.97]]},"properties":{"Name":"corridor-a"}}
]}]`

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := NewConfig(server.URL+"/eds", server.URL+"/areas", server.URL+"/limits")
	return NewService(NewClient(), config, zap.NewNop()), server
}

func TestServiceRefreshInstallsSnapshot(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(edsBody))
	}))

	require.NoError(t, service.Refresh(context.Background(), FeedEds))

	snapshot := service.CurrentEds()
	require.Len(t, snapshot.GetCorridors(), 1)
	assert.Equal(t, "corridor-a", snapshot.GetCorridors()[0].GetName())
	assert.False(t, snapshot.GetFetchedAt().IsZero())
}

func TestServiceKeepsSnapshotOnFailedFetch(t *testing.T) {
	var calls atomic.Int32
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(edsBody))
			return
		}
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))

	require.NoError(t, service.Refresh(context.Background(), FeedEds))
	first := service.CurrentEds()

	err := service.Refresh(context.Background(), FeedEds)
	require.Error(t, err)

	assert.Same(t, first, service.CurrentEds(), "failed fetch must retain the previous snapshot")
}

func TestServiceKeepsSnapshotOnMalformedBody(t *testing.T) {
	var calls atomic.Int32
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(edsBody))
			return
		}
		w.Write([]byte(`{"not":"an array"`))
	}))

	require.NoError(t, service.Refresh(context.Background(), FeedEds))
	first := service.CurrentEds()

	require.Error(t, service.Refresh(context.Background(), FeedEds))
	assert.Same(t, first, service.CurrentEds())
}

func TestServiceEmptyFeedInstallsEmptySnapshot(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	require.NoError(t, service.Refresh(context.Background(), FeedEds))

	snapshot := service.CurrentEds()
	assert.Empty(t, snapshot.GetCorridors())
	assert.False(t, snapshot.GetFetchedAt().IsZero(),
		"an empty but successful fetch still counts as an install")
}

func TestServiceObserverNotifiedPerInstall(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/eds":
			w.Write([]byte(edsBody))
		case "/areas":
			w.Write([]byte(`[{"id":"area-1","location":"37.95, 32.53","half_diameter":500}]`))
		default:
			w.Write([]byte(`{"data":{"items":[]}}`))
		}
	}))

	var got []Feed
	service.OnUpdate(func(f Feed) {
		got = append(got, f)
	})

	require.NoError(t, service.Refresh(context.Background(), FeedEds))
	require.NoError(t, service.Refresh(context.Background(), FeedCustomAreas))
	require.NoError(t, service.Refresh(context.Background(), FeedSpeedLimits))

	assert.Equal(t, []Feed{FeedEds, FeedCustomAreas, FeedSpeedLimits}, got)
}

func TestServiceObserverSkippedOnFailure(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	notified := false
	service.OnUpdate(func(Feed) { notified = true })

	require.Error(t, service.Refresh(context.Background(), FeedEds))
	assert.False(t, notified)
}

func TestServiceStartStop(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/eds":
			w.Write([]byte(edsBody))
		case "/areas":
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{"data":{"items":[]}}`))
		}
	}))

	installed := make(chan Feed, 8)
	service.OnUpdate(func(f Feed) {
		installed <- f
	})

	service.Start(context.Background())
	assert.True(t, service.Running())

	// all three pollers fetch once at startup
	seen := make(map[Feed]bool)
	for i := 0; i < 3; i++ {
		seen[<-installed] = true
	}
	assert.True(t, seen[FeedEds] && seen[FeedCustomAreas] && seen[FeedSpeedLimits])

	service.Stop()
	assert.False(t, service.Running())
}

func TestParseFeedNames(t *testing.T) {
	for _, f := range []Feed{FeedEds, FeedCustomAreas, FeedSpeedLimits} {
		parsed, ok := ParseFeed(f.String())
		require.True(t, ok)
		assert.Equal(t, f, parsed)
	}

	_, ok := ParseFeed("tides")
	assert.False(t, ok)
}
