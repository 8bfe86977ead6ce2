package feed

import (
	"encoding/json"
	"strings"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"go.uber.org/zap"
)

// wire formats. malformed records are skipped with a warning, a malformed
// envelope fails the whole parse (the previous snapshot is then retained).

type edsDocument struct {
	Features []edsFeature `json:"features"`
}

type edsFeature struct {
	Geometry   edsGeometry   `json:"geometry"`
	Properties edsProperties `json:"properties"`
}

type edsGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type edsProperties struct {
	Name string `json:"Name"`
}

type areaDocument struct {
	ID           json.Number `json:"id"`
	Location     string      `json:"location"`
	HalfDiameter float64     `json:"half_diameter"`
}

type speedLimitEnvelope struct {
	Data speedLimitData `json:"data"`
}

type speedLimitData struct {
	Items []speedLimitItem `json:"items"`
}

type speedLimitItem struct {
	ID         json.Number         `json:"id"`
	Title      string              `json:"title"`
	Linestring speedLimitGeometry  `json:"linestring"`
	Cars       []speedLimitVehicle `json:"cars"`
}

type speedLimitGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type speedLimitVehicle struct {
	CarID   int     `json:"car_id"`
	CarName string  `json:"car_name"`
	Speed   float64 `json:"speed"`
}

// ParseEds parses the eds feed body: an array of geojson-like documents whose
// LineString features become corridors keyed by properties.Name. features
// with another geometry type, fewer than 2 coordinates, or no name are
// skipped.
func ParseEds(data []byte, logger *zap.Logger) ([]Corridor, error) {
	var docs []edsDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "feed.ParseEds: unmarshal eds feed")
	}

	corridors := make([]Corridor, 0)
	for _, doc := range docs {
		for _, feature := range doc.Features {
			if feature.Geometry.Type != "LineString" {
				logger.Debug("skipping eds feature with unsupported geometry",
					zap.String("type", feature.Geometry.Type))
				continue
			}
			if feature.Properties.Name == "" {
				logger.Warn("skipping eds feature without a corridor name")
				continue
			}
			waypoints, ok := lonLatWaypoints(feature.Geometry.Coordinates)
			if !ok {
				logger.Warn("skipping eds feature with malformed coordinates",
					zap.String("corridor", feature.Properties.Name))
				continue
			}
			corridors = append(corridors, NewCorridor(feature.Properties.Name, waypoints))
		}
	}
	return corridors, nil
}

// ParseCustomAreas parses the custom-areas feed body. an entry needs an id, a
// "lat, lon" location inside the wgs-84 ranges, and a positive radius;
// anything else is dropped with a warning.
func ParseCustomAreas(data []byte, logger *zap.Logger) ([]Area, error) {
	var docs []areaDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "feed.ParseCustomAreas: unmarshal custom-areas feed")
	}

	areas := make([]Area, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID.String()
		if id == "" {
			logger.Warn("skipping custom area without an id")
			continue
		}
		center, ok := parseLocation(doc.Location)
		if !ok {
			logger.Warn("skipping custom area with malformed location",
				zap.String("id", id), zap.String("location", doc.Location))
			continue
		}
		if doc.HalfDiameter <= 0 {
			logger.Warn("skipping custom area with non-positive radius",
				zap.String("id", id), zap.Float64("half_diameter", doc.HalfDiameter))
			continue
		}
		areas = append(areas, NewArea(id, center, doc.HalfDiameter))
	}
	return areas, nil
}

// ParseSpeedLimits parses the speed-limits feed body. one entry is produced
// per (item.id, car_id) pair; unknown vehicle classes and non-positive limits
// are skipped.
func ParseSpeedLimits(data []byte, logger *zap.Logger) ([]SpeedLimit, error) {
	var envelope speedLimitEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "feed.ParseSpeedLimits: unmarshal speed-limits feed")
	}

	limits := make([]SpeedLimit, 0)
	for _, item := range envelope.Data.Items {
		id := item.ID.String()
		if id == "" {
			logger.Warn("skipping speed-limit item without an id")
			continue
		}
		waypoints, ok := lonLatWaypoints(item.Linestring.Coordinates)
		if !ok {
			logger.Warn("skipping speed-limit item with malformed coordinates",
				zap.String("id", id))
			continue
		}
		for _, car := range item.Cars {
			class := pkg.GetVehicleClass(car.CarID)
			if class == pkg.VEHICLE_CLASS_NONE {
				logger.Debug("skipping speed limit for unknown vehicle class",
					zap.String("id", id), zap.Int("car_id", car.CarID),
					zap.String("car_name", car.CarName))
				continue
			}
			if car.Speed <= 0 {
				logger.Warn("skipping speed limit with non-positive speed",
					zap.String("id", id), zap.Int("car_id", car.CarID),
					zap.Float64("speed", car.Speed))
				continue
			}
			limits = append(limits, NewSpeedLimit(id, item.Title, waypoints, class, car.Speed))
		}
	}
	return limits, nil
}

// lonLatWaypoints converts geojson [lon, lat] coordinate pairs. returns false
// when fewer than 2 usable points survive.
func lonLatWaypoints(coordinates [][]float64) ([]datastructure.Coordinate, bool) {
	waypoints := make([]datastructure.Coordinate, 0, len(coordinates))
	for _, pair := range coordinates {
		if len(pair) < 2 {
			continue
		}
		waypoints = append(waypoints, datastructure.NewCoordinate(pair[1], pair[0]))
	}
	if len(waypoints) < 2 {
		return nil, false
	}
	return waypoints, true
}

// parseLocation splits a "lat, lon" string and validates the wgs-84 ranges.
func parseLocation(location string) (datastructure.Coordinate, bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return datastructure.Coordinate{}, false
	}
	lat, err := util.StringToFloat64(strings.TrimSpace(parts[0]))
	if err != nil {
		return datastructure.Coordinate{}, false
	}
	lon, err := util.StringToFloat64(strings.TrimSpace(parts[1]))
	if err != nil {
		return datastructure.Coordinate{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return datastructure.Coordinate{}, false
	}
	return datastructure.NewCoordinate(lat, lon), true
}
