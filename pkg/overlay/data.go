package overlay

import (
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// per-edge records. tables hold the winning corridor per edge: highest match
// score, corridor id ascending on ties.

type EdsEntry struct {
	corridor   string
	matchScore float64
}

func NewEdsEntry(corridor string, matchScore float64) EdsEntry {
	return EdsEntry{corridor: corridor, matchScore: matchScore}
}

func (e EdsEntry) GetCorridor() string {
	return e.corridor
}

func (e EdsEntry) GetMatchScore() float64 {
	return e.matchScore
}

type AreaEntry struct {
	areaID     string
	matchScore float64
}

func NewAreaEntry(areaID string, matchScore float64) AreaEntry {
	return AreaEntry{areaID: areaID, matchScore: matchScore}
}

func (e AreaEntry) GetAreaID() string {
	return e.areaID
}

func (e AreaEntry) GetMatchScore() float64 {
	return e.matchScore
}

type SpeedLimitEntry struct {
	corridorTitle string
	speedKmh      float64
	matchScore    float64
}

func NewSpeedLimitEntry(corridorTitle string, speedKmh, matchScore float64) SpeedLimitEntry {
	return SpeedLimitEntry{
		corridorTitle: corridorTitle,
		speedKmh:      speedKmh,
		matchScore:    matchScore,
	}
}

func (e SpeedLimitEntry) GetCorridorTitle() string {
	return e.corridorTitle
}

func (e SpeedLimitEntry) GetSpeedKmh() float64 {
	return e.speedKmh
}

func (e SpeedLimitEntry) GetMatchScore() float64 {
	return e.matchScore
}

// tables. immutable after construction; the index publishes them through
// atomic pointers and weightings capture the pointers at bind time.

type EdsTable struct {
	entries   map[datastructure.Index]EdsEntry
	fetchedAt time.Time
}

func newEdsTable(entries map[datastructure.Index]EdsEntry, fetchedAt time.Time) *EdsTable {
	return &EdsTable{entries: entries, fetchedAt: fetchedAt}
}

func emptyEdsTable() *EdsTable {
	return &EdsTable{entries: map[datastructure.Index]EdsEntry{}}
}

func (t *EdsTable) Get(edgeId datastructure.Index) (EdsEntry, bool) {
	entry, ok := t.entries[edgeId]
	return entry, ok
}

func (t *EdsTable) Contains(edgeId datastructure.Index) bool {
	_, ok := t.entries[edgeId]
	return ok
}

func (t *EdsTable) Len() int {
	return len(t.entries)
}

func (t *EdsTable) GetFetchedAt() time.Time {
	return t.fetchedAt
}

type AreaTable struct {
	entries   map[datastructure.Index]AreaEntry
	fetchedAt time.Time
}

func newAreaTable(entries map[datastructure.Index]AreaEntry, fetchedAt time.Time) *AreaTable {
	return &AreaTable{entries: entries, fetchedAt: fetchedAt}
}

func emptyAreaTable() *AreaTable {
	return &AreaTable{entries: map[datastructure.Index]AreaEntry{}}
}

func (t *AreaTable) Get(edgeId datastructure.Index) (AreaEntry, bool) {
	entry, ok := t.entries[edgeId]
	return entry, ok
}

func (t *AreaTable) Contains(edgeId datastructure.Index) bool {
	_, ok := t.entries[edgeId]
	return ok
}

func (t *AreaTable) Len() int {
	return len(t.entries)
}

func (t *AreaTable) GetFetchedAt() time.Time {
	return t.fetchedAt
}

type SpeedLimitTable struct {
	classes   map[pkg.VehicleClass]map[datastructure.Index]SpeedLimitEntry
	fetchedAt time.Time
}

func newSpeedLimitTable(classes map[pkg.VehicleClass]map[datastructure.Index]SpeedLimitEntry,
	fetchedAt time.Time) *SpeedLimitTable {
	return &SpeedLimitTable{classes: classes, fetchedAt: fetchedAt}
}

func emptySpeedLimitTable() *SpeedLimitTable {
	return &SpeedLimitTable{classes: map[pkg.VehicleClass]map[datastructure.Index]SpeedLimitEntry{}}
}

func (t *SpeedLimitTable) Get(class pkg.VehicleClass, edgeId datastructure.Index) (SpeedLimitEntry, bool) {
	entries, ok := t.classes[class]
	if !ok {
		return SpeedLimitEntry{}, false
	}
	entry, ok := entries[edgeId]
	return entry, ok
}

func (t *SpeedLimitTable) Len() int {
	total := 0
	for _, entries := range t.classes {
		total += len(entries)
	}
	return total
}

func (t *SpeedLimitTable) GetFetchedAt() time.Time {
	return t.fetchedAt
}

// Flags are the per-request overlay switches after binding: which avoidances
// are active and which vehicle class the speed-limit overlay applies to
// (VEHICLE_CLASS_NONE disables it).
type Flags struct {
	avoidEdsRoads    bool
	avoidCustomAreas bool
	vehicleClass     pkg.VehicleClass
}

func NewFlags(avoidEdsRoads, avoidCustomAreas bool, vehicleClass pkg.VehicleClass) Flags {
	return Flags{
		avoidEdsRoads:    avoidEdsRoads,
		avoidCustomAreas: avoidCustomAreas,
		vehicleClass:     vehicleClass,
	}
}

func (f Flags) AvoidEdsRoads() bool {
	return f.avoidEdsRoads
}

func (f Flags) AvoidCustomAreas() bool {
	return f.avoidCustomAreas
}

func (f Flags) VehicleClass() pkg.VehicleClass {
	return f.vehicleClass
}

func (f Flags) AnyAvoidance() bool {
	return f.avoidEdsRoads || f.avoidCustomAreas
}

func (f Flags) AnyOverlay() bool {
	return f.AnyAvoidance() || f.vehicleClass != pkg.VEHICLE_CLASS_NONE
}

// Stats is the coarse eds-table breakdown for observability: entry counts by
// congestion class plus the unix-ms timestamp of the last rebuild.
type Stats struct {
	total        int
	heavy        int
	moderate     int
	light        int
	lastUpdateMs int64
}

func (s Stats) GetTotal() int {
	return s.total
}

func (s Stats) GetHeavy() int {
	return s.heavy
}

func (s Stats) GetModerate() int {
	return s.moderate
}

func (s Stats) GetLight() int {
	return s.light
}

func (s Stats) GetLastUpdateMs() int64 {
	return s.lastUpdateMs
}

// EdsSample is one debug-endpoint record.
type EdsSample struct {
	edgeId     datastructure.Index
	corridor   string
	matchScore float64
}

func (s EdsSample) GetEdgeId() datastructure.Index {
	return s.edgeId
}

func (s EdsSample) GetCorridor() string {
	return s.corridor
}

func (s EdsSample) GetMatchScore() float64 {
	return s.matchScore
}
