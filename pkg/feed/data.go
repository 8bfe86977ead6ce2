package feed

import (
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

type Feed int

const (
	FeedEds Feed = iota
	FeedCustomAreas
	FeedSpeedLimits
)

func (f Feed) String() string {
	switch f {
	case FeedEds:
		return "eds"
	case FeedCustomAreas:
		return "custom_areas"
	case FeedSpeedLimits:
		return "speed_limits"
	}
	return "unknown"
}

// ParseFeed maps a feed name ("eds", "custom_areas", "speed_limits") back to
// its Feed value. used by the refresh endpoint.
func ParseFeed(name string) (Feed, bool) {
	switch name {
	case "eds":
		return FeedEds, true
	case "custom_areas":
		return FeedCustomAreas, true
	case "speed_limits":
		return FeedSpeedLimits, true
	}
	return 0, false
}

// Corridor is one named polyline from the eds feed. the name is the stable
// corridor id used for tie-breaking and for removal on the next refresh.
type Corridor struct {
	name      string
	waypoints []datastructure.Coordinate
}

func NewCorridor(name string, waypoints []datastructure.Coordinate) Corridor {
	return Corridor{
		name:      name,
		waypoints: waypoints,
	}
}

func (c Corridor) GetName() string {
	return c.name
}

func (c Corridor) GetWaypoints() []datastructure.Coordinate {
	return c.waypoints
}

// Area is one circular avoidance zone from the custom-areas feed.
type Area struct {
	id           string
	center       datastructure.Coordinate
	radiusMeters float64
}

func NewArea(id string, center datastructure.Coordinate, radiusMeters float64) Area {
	return Area{
		id:           id,
		center:       center,
		radiusMeters: radiusMeters,
	}
}

func (a Area) GetID() string {
	return a.id
}

func (a Area) GetCenter() datastructure.Coordinate {
	return a.center
}

func (a Area) GetRadiusMeters() float64 {
	return a.radiusMeters
}

// SpeedLimit is one (corridor, vehicle class) pair from the speed-limits
// feed: a polyline plus the limit in km/h for that class.
type SpeedLimit struct {
	corridorID   string
	title        string
	waypoints    []datastructure.Coordinate
	vehicleClass pkg.VehicleClass
	speedKmh     float64
}

func NewSpeedLimit(corridorID, title string, waypoints []datastructure.Coordinate,
	vehicleClass pkg.VehicleClass, speedKmh float64) SpeedLimit {
	return SpeedLimit{
		corridorID:   corridorID,
		title:        title,
		waypoints:    waypoints,
		vehicleClass: vehicleClass,
		speedKmh:     speedKmh,
	}
}

func (sl SpeedLimit) GetCorridorID() string {
	return sl.corridorID
}

func (sl SpeedLimit) GetTitle() string {
	return sl.title
}

func (sl SpeedLimit) GetWaypoints() []datastructure.Coordinate {
	return sl.waypoints
}

func (sl SpeedLimit) GetVehicleClass() pkg.VehicleClass {
	return sl.vehicleClass
}

func (sl SpeedLimit) GetSpeedKmh() float64 {
	return sl.speedKmh
}

// snapshots. immutable after construction, published through atomic pointers.
// consumers must never mutate the slices they hand out.

type EdsSnapshot struct {
	corridors []Corridor
	fetchedAt time.Time
}

func NewEdsSnapshot(corridors []Corridor, fetchedAt time.Time) *EdsSnapshot {
	return &EdsSnapshot{corridors: corridors, fetchedAt: fetchedAt}
}

// EmptyEdsSnapshot is the before-first-fetch snapshot. its zero fetchedAt
// marks that no data has ever been installed.
func EmptyEdsSnapshot() *EdsSnapshot {
	return &EdsSnapshot{}
}

func (s *EdsSnapshot) GetCorridors() []Corridor {
	return s.corridors
}

func (s *EdsSnapshot) GetFetchedAt() time.Time {
	return s.fetchedAt
}

type CustomAreaSnapshot struct {
	areas     []Area
	fetchedAt time.Time
}

func NewCustomAreaSnapshot(areas []Area, fetchedAt time.Time) *CustomAreaSnapshot {
	return &CustomAreaSnapshot{areas: areas, fetchedAt: fetchedAt}
}

func EmptyCustomAreaSnapshot() *CustomAreaSnapshot {
	return &CustomAreaSnapshot{}
}

func (s *CustomAreaSnapshot) GetAreas() []Area {
	return s.areas
}

func (s *CustomAreaSnapshot) GetFetchedAt() time.Time {
	return s.fetchedAt
}

type SpeedLimitSnapshot struct {
	limits    []SpeedLimit
	fetchedAt time.Time
}

func NewSpeedLimitSnapshot(limits []SpeedLimit, fetchedAt time.Time) *SpeedLimitSnapshot {
	return &SpeedLimitSnapshot{limits: limits, fetchedAt: fetchedAt}
}

func EmptySpeedLimitSnapshot() *SpeedLimitSnapshot {
	return &SpeedLimitSnapshot{}
}

func (s *SpeedLimitSnapshot) GetLimits() []SpeedLimit {
	return s.limits
}

func (s *SpeedLimitSnapshot) GetFetchedAt() time.Time {
	return s.fetchedAt
}
