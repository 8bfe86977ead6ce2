package geo

import (
	"math"

	"github.com/twpayne/go-polyline"
)

// PolylineFromCoords encode coordinates into a google polyline string.
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func PolylineFromCoords(coords []Coordinate) string {
	latLons := make([][]float64, 0, len(coords))
	for _, c := range coords {
		latLons = append(latLons, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(latLons))
}

// CoordsFromPolyline decode a google polyline string back into coordinates.
func CoordsFromPolyline(poly string) ([]Coordinate, error) {
	latLons, _, err := polyline.DecodeCoords([]byte(poly))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, 0, len(latLons))
	for _, ll := range latLons {
		coords = append(coords, NewCoordinate(ll[0], ll[1]))
	}
	return coords, nil
}

// PolylineLengthDeg. length of the polyline in planar degree space.
func PolylineLengthDeg(coords []Coordinate) float64 {
	length := 0.0
	for i := 0; i < len(coords)-1; i++ {
		dLat := coords[i+1].Lat - coords[i].Lat
		dLon := coords[i+1].Lon - coords[i].Lon
		length += math.Sqrt(dLat*dLat + dLon*dLon)
	}
	return length
}

// pointSegmentDistanceDeg. planar distance (in degrees) from p to the segment (a,b).
func pointSegmentDistanceDeg(p, a, b Coordinate) float64 {
	abLat := b.Lat - a.Lat
	abLon := b.Lon - a.Lon
	apLat := p.Lat - a.Lat
	apLon := p.Lon - a.Lon

	abLenSq := abLat*abLat + abLon*abLon
	if abLenSq == 0 {
		return math.Sqrt(apLat*apLat + apLon*apLon)
	}

	t := (apLat*abLat + apLon*abLon) / abLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	projLat := a.Lat + t*abLat
	projLon := a.Lon + t*abLon
	dLat := p.Lat - projLat
	dLon := p.Lon - projLon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// PointPolylineDistanceDeg. planar distance (in degrees) from p to the nearest segment of coords.
func PointPolylineDistanceDeg(p Coordinate, coords []Coordinate) float64 {
	if len(coords) == 0 {
		return math.Inf(1)
	}
	if len(coords) == 1 {
		dLat := p.Lat - coords[0].Lat
		dLon := p.Lon - coords[0].Lon
		return math.Sqrt(dLat*dLat + dLon*dLon)
	}
	minDist := math.Inf(1)
	for i := 0; i < len(coords)-1; i++ {
		d := pointSegmentDistanceDeg(p, coords[i], coords[i+1])
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

func directedHausdorffDeg(from, to []Coordinate) float64 {
	maxDist := 0.0
	for _, p := range from {
		d := PointPolylineDistanceDeg(p, to)
		if d > maxDist {
			maxDist = d
		}
	}
	return maxDist
}

// HausdorffDistanceDeg. symmetric discrete hausdorff distance between two polylines,
// in planar degree space. every vertex of one line is matched against the nearest
// segment of the other.
func HausdorffDistanceDeg(a, b []Coordinate) float64 {
	return math.Max(directedHausdorffDeg(a, b), directedHausdorffDeg(b, a))
}

// DirectionCosine. |cos| of the angle between the overall direction vectors
// (first point -> last point) of the two polylines. lines with fewer than two
// points (or zero extent) get a neutral 0.5.
func DirectionCosine(a, b []Coordinate) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0.5
	}
	aLat := a[len(a)-1].Lat - a[0].Lat
	aLon := a[len(a)-1].Lon - a[0].Lon
	bLat := b[len(b)-1].Lat - b[0].Lat
	bLon := b[len(b)-1].Lon - b[0].Lon

	aNorm := math.Sqrt(aLat*aLat + aLon*aLon)
	bNorm := math.Sqrt(bLat*bLat + bLon*bLon)
	if aNorm == 0 || bNorm == 0 {
		return 0.5
	}

	cos := (aLat*bLat + aLon*bLon) / (aNorm * bNorm)
	return math.Abs(cos)
}
