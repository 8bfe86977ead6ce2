package matcher

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLineMatcher(t *testing.T, source *stubSource) *LineMatcher {
	t.Helper()
	return NewLineMatcher(source, newStubCache(t, source), nil, zap.NewNop())
}

func TestLineMatchExactPolylineScoresOne(t *testing.T) {
	polyline := coords(37.95, 32.53, 37.951, 32.531, 37.952, 32.532)
	source := &stubSource{edges: [][]datastructure.Coordinate{polyline}}
	matcher := newLineMatcher(t, source)

	matches := matcher.Match(polyline, EdsLineMatchParams())

	require.Len(t, matches, 1)
	assert.Equal(t, datastructure.Index(0), matches[0].GetEdgeId())
	assert.InDelta(t, 1.0, matches[0].GetScore(), 1e-9)
}

func TestLineMatchBelowThresholdRejected(t *testing.T) {
	query := coords(37.95, 32.53, 37.95, 32.54)
	source := &stubSource{edges: [][]datastructure.Coordinate{
		// a candidate (endpoint in the box) but short and perpendicular:
		// distance score 0, tiny length ratio, direction cosine 0
		coords(37.9495, 32.53, 37.9505, 32.53),
	}}
	matcher := newLineMatcher(t, source)

	matches := matcher.Match(query, EdsLineMatchParams())
	assert.Empty(t, matches)
}

func TestLineMatchSortedDescendingWithIdTieBreak(t *testing.T) {
	exact := coords(37.95, 32.53, 37.95, 32.54)
	// slightly offset copy scores below the exact one but above threshold
	offset := coords(37.95005, 32.53, 37.95005, 32.54)
	source := &stubSource{edges: [][]datastructure.Coordinate{
		offset,
		exact,
		offset, // duplicate geometry, same score as edge 0
	}}
	matcher := newLineMatcher(t, source)

	matches := matcher.Match(exact, EdsLineMatchParams())

	require.Len(t, matches, 3)
	assert.Equal(t, datastructure.Index(1), matches[0].GetEdgeId())
	assert.InDelta(t, 1.0, matches[0].GetScore(), 1e-9)

	assert.Equal(t, datastructure.Index(0), matches[1].GetEdgeId())
	assert.Equal(t, datastructure.Index(2), matches[2].GetEdgeId())
	assert.Equal(t, matches[1].GetScore(), matches[2].GetScore())
	assert.Less(t, matches[1].GetScore(), matches[0].GetScore())
}

func TestLineMatchDirectionSymmetry(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.53, 37.951, 32.531, 37.952, 32.533),
	}}
	matcher := newLineMatcher(t, source)

	forward := coords(37.95, 32.53, 37.951, 32.531, 37.952, 32.533)
	backward := coords(37.952, 32.533, 37.951, 32.531, 37.95, 32.53)

	forwardMatches := matcher.Match(forward, EdsLineMatchParams())
	backwardMatches := matcher.Match(backward, EdsLineMatchParams())

	require.Len(t, forwardMatches, 1)
	require.Len(t, backwardMatches, 1)
	assert.InDelta(t, forwardMatches[0].GetScore(), backwardMatches[0].GetScore(), 1e-9)
}

func TestLineMatchCandidateRule(t *testing.T) {
	// query box around (37.95, 32.53), expanded by 0.001 degree minimum
	query := coords(37.949, 32.529, 37.951, 32.531)
	source := &stubSource{edges: [][]datastructure.Coordinate{
		// endpoint inside the expanded box
		coords(37.9495, 32.5295, 37.96, 32.55),
		// endpoints straddle the box in both lat and lon
		coords(37.90, 32.40, 38.00, 32.60),
		// crosses the box but straddles in lon only: not a candidate
		coords(37.9505, 32.40, 37.9505, 32.60),
		// far away entirely
		coords(38.50, 33.50, 38.51, 33.51),
	}}
	matcher := newLineMatcher(t, source)

	// zero threshold makes the result set equal the candidate set
	matches := matcher.Match(query, NewLineMatchParams(50.0, 0.0))

	got := make(map[datastructure.Index]bool)
	for _, m := range matches {
		got[m.GetEdgeId()] = true
	}
	assert.True(t, got[0], "edge with an endpoint inside the box")
	assert.True(t, got[1], "edge straddling the box in both axes")
	assert.False(t, got[2], "edge straddling one axis only")
	assert.False(t, got[3], "edge far outside")
}

func TestLineMatchShortQueryIgnored(t *testing.T) {
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95, 32.53, 37.95, 32.54),
	}}
	matcher := newLineMatcher(t, source)

	assert.Empty(t, matcher.Match(nil, EdsLineMatchParams()))
	assert.Empty(t, matcher.Match(coords(37.95, 32.53), EdsLineMatchParams()))
}

func TestLineMatchSpeedLimitParamsTighter(t *testing.T) {
	// ~39m lateral offset: inside the eds 50m band, outside the speed-limit
	// 30m band far enough to drop the total below 0.7
	query := coords(37.95, 32.53, 37.95, 32.54)
	source := &stubSource{edges: [][]datastructure.Coordinate{
		coords(37.95035, 32.53, 37.95035, 32.54),
	}}
	matcher := newLineMatcher(t, source)

	edsMatches := matcher.Match(query, EdsLineMatchParams())
	slMatches := matcher.Match(query, SpeedLimitLineMatchParams())

	require.Len(t, edsMatches, 1)
	assert.Empty(t, slMatches)
}
