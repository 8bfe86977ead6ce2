package matcher

import (
	"sync"
	"testing"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryCacheReturnsPolyline(t *testing.T) {
	polyline := coords(37.95, 32.53, 37.951, 32.531)
	source := &stubSource{edges: [][]datastructure.Coordinate{polyline}}
	cache := newStubCache(t, source)

	got, err := cache.Get(0)
	require.NoError(t, err)
	assert.Equal(t, polyline, got)
}

func TestGeometryCacheInvalidEdge(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.53, 37.951, 32.531),
	}}
	cache := newStubCache(t, source)

	_, err := cache.Get(7)
	require.Error(t, err)
}

// edges without stored geometry fall back to the endpoint pair, so every
// cached polyline has at least two points.
type emptyGeometrySource struct {
	stubSource
}

func (s *emptyGeometrySource) GetEdgeGeometry(e datastructure.Index) []datastructure.Coordinate {
	return nil
}

func TestGeometryCacheEndpointFallback(t *testing.T) {
	source := &emptyGeometrySource{stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.53, 37.951, 32.531),
	}}}
	cache, err := NewGeometryCache(source)
	require.NoError(t, err)

	got, err := cache.Get(0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 37.95, got[0].GetLat(), 1e-9)
	assert.InDelta(t, 32.531, got[1].GetLon(), 1e-9)
}

func TestGeometryCachePurgeConcurrentWithReaders(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.53, 37.951, 32.531),
		coords(37.96, 32.54, 37.961, 32.541),
	}}
	cache := newStubCache(t, source)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				polyline, err := cache.Get(datastructure.Index(i % 2))
				assert.NoError(t, err)
				assert.Len(t, polyline, 2)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		cache.Purge()
	}
	wg.Wait()
}
