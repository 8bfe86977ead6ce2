package spatialindex

import (
	"math"
	"sort"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree indexes every directed edge of the road graph by the bounding box of
// its full pillar geometry. the index only prefilters: every consumer
// (snapping, corridor matching, area matching) re-checks candidates against the
// exact edge geometry.
type Rtree struct {
	tr    *rtree.RTreeG[datastructure.Index]
	graph *datastructure.Graph
}

func NewRtree(graph *datastructure.Graph) *Rtree {
	var tr rtree.RTreeG[datastructure.Index]
	return &Rtree{
		tr:    &tr,
		graph: graph,
	}
}

// Build. build r-tree, with each edge leaf padded by boundingBoxRadius (in km)
func (rt *Rtree) Build(boundingBoxRadius float64, log *zap.Logger) {
	log.Info("building r-tree spatial index...")

	numEdges := rt.graph.NumberOfEdges()
	logged := 0
	rt.graph.ForEdges(func(e *datastructure.OutEdge) {
		edgeId := e.GetEdgeId()

		percentage := float64(edgeId) / float64(numEdges) * 100
		if int(percentage)/10 > logged {
			logged = int(percentage) / 10
			log.Info("building r-tree spatial index...", zap.Float64("progress", percentage))
		}

		tail := rt.graph.GetEdgeTail(edgeId)
		head := e.GetHead()

		minLat, minLon := rt.graph.GetVertexCoordinates(tail)
		maxLat, maxLon := minLat, minLon

		extend := func(lat, lon float64) {
			minLat = math.Min(minLat, lat)
			minLon = math.Min(minLon, lon)
			maxLat = math.Max(maxLat, lat)
			maxLon = math.Max(maxLon, lon)
		}

		headLat, headLon := rt.graph.GetVertexCoordinates(head)
		extend(headLat, headLon)
		for _, p := range rt.graph.GetEdgeGeometry(edgeId) {
			extend(p.GetLat(), p.GetLon())
		}

		lowerLat, lowerLon := geo.GetDestinationPoint(minLat, minLon, 225, boundingBoxRadius)
		upperLat, upperLon := geo.GetDestinationPoint(maxLat, maxLon, 45, boundingBoxRadius)

		rt.tr.Insert([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat}, edgeId)
	})

	log.Info("r-tree spatial index built.")
}

// SearchWithinRadius. all edges whose leaf box intersects the box of radius
// (in km) around the query point (qLat, qLon).
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []datastructure.Index {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	return rt.SearchInBoundingBox(lowerLat, lowerLon, upperLat, upperLon)
}

// SearchInBoundingBox. all edges whose leaf box intersects the query box.
func (rt *Rtree) SearchInBoundingBox(minLat, minLon, maxLat, maxLon float64) []datastructure.Index {
	results := make([]datastructure.Index, 0, 16)
	rt.tr.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
		func(min, max [2]float64, edgeId datastructure.Index) bool {
			results = append(results, edgeId)
			return true
		})
	return results
}

type edgeCandidate struct {
	edgeId datastructure.Index
	dist   float64 // meter, from the query point to the edge geometry
}

// NearestEdges. up to k edges closest to the query point, ordered by the exact
// distance from the point to the edge geometry. the search box grows until
// enough candidates are found.
func (rt *Rtree) NearestEdges(qLat, qLon float64, k int) []datastructure.Index {
	var candidates []edgeCandidate

	for _, radius := range []float64{0.05, 0.2, 1.0, 5.0} {
		edgeIds := rt.SearchWithinRadius(qLat, qLon, radius)
		if len(edgeIds) < k && radius != 5.0 {
			continue
		}

		candidates = make([]edgeCandidate, 0, len(edgeIds))
		for _, edgeId := range edgeIds {
			candidates = append(candidates, edgeCandidate{
				edgeId: edgeId,
				dist:   rt.distanceToEdge(qLat, qLon, edgeId),
			})
		}
		break
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	k = util.Min(k, len(candidates))
	nearest := make([]datastructure.Index, 0, k)
	for _, c := range candidates[:k] {
		nearest = append(nearest, c.edgeId)
	}
	return nearest
}

// SnapToNearestVertices. up to k distinct graph vertices near the query point,
// ordered by snap quality. for every nearby edge the nearer endpoint is taken.
func (rt *Rtree) SnapToNearestVertices(qLat, qLon float64, k int) []datastructure.Index {
	edgeIds := rt.NearestEdges(qLat, qLon, 4*k)

	seen := make(map[datastructure.Index]struct{}, len(edgeIds))
	vertices := make([]datastructure.Index, 0, k)
	for _, edgeId := range edgeIds {
		tail := rt.graph.GetEdgeTail(edgeId)
		head := rt.graph.GetEdgeHead(edgeId)

		tailLat, tailLon := rt.graph.GetVertexCoordinates(tail)
		headLat, headLon := rt.graph.GetVertexCoordinates(head)

		nearest := tail
		if geo.CalculateHaversineDistance(qLat, qLon, headLat, headLon) <
			geo.CalculateHaversineDistance(qLat, qLon, tailLat, tailLon) {
			nearest = head
		}

		if _, ok := seen[nearest]; ok {
			continue
		}
		seen[nearest] = struct{}{}
		vertices = append(vertices, nearest)
		if len(vertices) == k {
			break
		}
	}
	return vertices
}

// distanceToEdge. exact distance (in meter) from the query point to the nearest
// segment of the edge geometry.
func (rt *Rtree) distanceToEdge(qLat, qLon float64, edgeId datastructure.Index) float64 {
	queryPoint := geo.NewCoordinate(qLat, qLon)

	points := rt.graph.GetEdgeGeometry(edgeId)
	if len(points) < 2 {
		tailLat, tailLon := rt.graph.GetVertexCoordinates(rt.graph.GetEdgeTail(edgeId))
		headLat, headLon := rt.graph.GetVertexCoordinates(rt.graph.GetEdgeHead(edgeId))
		return geo.PointLinePerpendicularDistance(
			geo.NewCoordinate(tailLat, tailLon), geo.NewCoordinate(headLat, headLon), queryPoint)
	}

	minDist := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		d := geo.PointLinePerpendicularDistance(
			points[i].ToGeoCoordinate(), points[i+1].ToGeoCoordinate(), queryPoint)
		minDist = math.Min(minDist, d)
	}
	return minDist
}
