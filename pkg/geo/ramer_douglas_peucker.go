package geo

// ~1 meter in degree space
const douglasPeuckerEpsilon = 1e-5

// RamerDouglasPeucker simplifies a polyline, dropping pillar points that deviate
// less than douglasPeuckerEpsilon from the line between the kept neighbors.
// https://en.wikipedia.org/wiki/Ramer%E2%80%93Douglas%E2%80%93Peucker_algorithm
func RamerDouglasPeucker(points []Coordinate) []Coordinate {
	if len(points) < 3 {
		return points
	}

	maxDist := 0.0
	index := 0
	for i := 1; i < len(points)-1; i++ {
		d := pointSegmentDistanceDeg(points[i], points[0], points[len(points)-1])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= douglasPeuckerEpsilon {
		return []Coordinate{points[0], points[len(points)-1]}
	}

	left := RamerDouglasPeucker(points[:index+1])
	right := RamerDouglasPeucker(points[index:])

	simplified := make([]Coordinate, 0, len(left)+len(right)-1)
	simplified = append(simplified, left[:len(left)-1]...)
	simplified = append(simplified, right...)
	return simplified
}
