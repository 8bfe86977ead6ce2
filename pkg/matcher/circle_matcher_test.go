package matcher

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCircleMatcher(t *testing.T, source *stubSource) *CircleMatcher {
	t.Helper()
	return NewCircleMatcher(source, newStubCache(t, source), nil, zap.NewNop())
}

func TestCircleMatchEdgeThroughCenter(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		// passes exactly through the center point
		coords(37.95, 32.52, 37.95, 32.53, 37.95, 32.54),
	}}
	matcher := newCircleMatcher(t, source)

	matches := matcher.Match(37.95, 32.53, 500)

	require.Len(t, matches, 1)
	assert.Equal(t, datastructure.Index(0), matches[0].GetEdgeId())
	assert.InDelta(t, 1.0, matches[0].GetScore(), 1e-9)
}

func TestCircleMatchNoThreshold(t *testing.T) {
	// a chord through the circle whose polyline points all sit outside it:
	// the segment intersects, the nearest point is beyond the radius, and
	// the match survives with a clamped score of zero.
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.94, 32.53, 37.96, 32.53),
	}}
	matcher := newCircleMatcher(t, source)

	matches := matcher.Match(37.95, 32.53, 500)

	require.Len(t, matches, 1)
	assert.InDelta(t, 0.0, matches[0].GetScore(), 1e-9)
}

func TestCircleMatchNonIntersectingExcluded(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		// ~1.1km east of the center, outside a 500m circle
		coords(37.94, 32.5425, 37.96, 32.5425),
	}}
	matcher := newCircleMatcher(t, source)

	assert.Empty(t, matcher.Match(37.95, 32.53, 500))
}

func TestCircleMatchScoreByDepth(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		// nearest polyline point ~222m north of the center
		coords(37.952, 32.52, 37.952, 32.53, 37.952, 32.54),
	}}
	matcher := newCircleMatcher(t, source)

	matches := matcher.Match(37.95, 32.53, 500)

	require.Len(t, matches, 1)
	// (500 - ~222.4) / 500
	assert.InDelta(t, 0.555, matches[0].GetScore(), 0.01)
}

func TestCircleMatchSortedByScore(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.952, 32.52, 37.952, 32.53, 37.952, 32.54), // ~222m away
		coords(37.95, 32.52, 37.95, 32.53, 37.95, 32.54),    // through center
	}}
	matcher := newCircleMatcher(t, source)

	matches := matcher.Match(37.95, 32.53, 500)

	require.Len(t, matches, 2)
	assert.Equal(t, datastructure.Index(1), matches[0].GetEdgeId())
	assert.Equal(t, datastructure.Index(0), matches[1].GetEdgeId())
	assert.Greater(t, matches[0].GetScore(), matches[1].GetScore())
}

func TestCircleMatchNonPositiveRadius(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.52, 37.95, 32.54),
	}}
	matcher := newCircleMatcher(t, source)

	assert.Empty(t, matcher.Match(37.95, 32.53, 0))
	assert.Empty(t, matcher.Match(37.95, 32.53, -500))
}

// a candidate index can surface ids the graph no longer knows; the matcher
// logs at debug level and moves on.
type bogusIndex struct {
	ids []datastructure.Index
}

func (b *bogusIndex) SearchInBoundingBox(minLat, minLon, maxLat, maxLon float64) []datastructure.Index {
	return b.ids
}

func (b *bogusIndex) SearchWithinRadius(qLat, qLon, radius float64) []datastructure.Index {
	return b.ids
}

func TestCircleMatchSkipsFailingEdges(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.52, 37.95, 32.53, 37.95, 32.54),
	}}
	index := &bogusIndex{ids: []datastructure.Index{99, 0}}
	matcher := NewCircleMatcher(source, newStubCache(t, source), index, zap.NewNop())

	matches := matcher.Match(37.95, 32.53, 500)

	require.Len(t, matches, 1)
	assert.Equal(t, datastructure.Index(0), matches[0].GetEdgeId())
}
