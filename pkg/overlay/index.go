package overlay

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/concurrent"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/matcher"
	"go.uber.org/zap"
)

const (
	heavyTrafficScore    = 0.7
	moderateTrafficScore = 0.4
)

// Index owns the three edge-keyed overlay tables. rebuilds run one at a time
// (scheduler-driven, serialized by a mutex) and publish a complete fresh
// table by atomic swap, so readers never observe partial state. request
// paths only ever read.
type Index struct {
	lineMatcher   *matcher.LineMatcher
	circleMatcher *matcher.CircleMatcher
	logger        *zap.Logger

	eds         atomic.Pointer[EdsTable]
	areas       atomic.Pointer[AreaTable]
	speedLimits atomic.Pointer[SpeedLimitTable]

	rebuildMu    sync.Mutex
	lastUpdateMs atomic.Int64
}

func NewIndex(lineMatcher *matcher.LineMatcher, circleMatcher *matcher.CircleMatcher,
	logger *zap.Logger) *Index {
	idx := &Index{
		lineMatcher:   lineMatcher,
		circleMatcher: circleMatcher,
		logger:        logger,
	}
	idx.eds.Store(emptyEdsTable())
	idx.areas.Store(emptyAreaTable())
	idx.speedLimits.Store(emptySpeedLimitTable())
	return idx
}

type corridorMatches struct {
	corridor string
	matches  []matcher.LineMatch
}

// RebuildEds matches every corridor in the snapshot against the graph and
// swaps in the resulting table. corridors absent from the snapshot drop out,
// so a deleted corridor's edges disappear here.
func (idx *Index) RebuildEds(snapshot *feed.EdsSnapshot) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	start := time.Now()
	corridors := snapshot.GetCorridors()

	pool := concurrent.NewWorkerPool[feed.Corridor, corridorMatches](runtime.NumCPU(), len(corridors))
	for _, corridor := range corridors {
		pool.AddJob(corridor)
	}
	pool.Close()
	pool.Start(func(corridor feed.Corridor) corridorMatches {
		return corridorMatches{
			corridor: corridor.GetName(),
			matches:  idx.lineMatcher.Match(corridor.GetWaypoints(), matcher.EdsLineMatchParams()),
		}
	})
	pool.Wait()

	fresh := make(map[datastructure.Index]EdsEntry)
	for result := range pool.CollectResults() {
		for _, match := range result.matches {
			if better(match.GetScore(), result.corridor,
				fresh[match.GetEdgeId()].matchScore, fresh[match.GetEdgeId()].corridor) {
				fresh[match.GetEdgeId()] = NewEdsEntry(result.corridor, match.GetScore())
			}
		}
	}

	idx.eds.Store(newEdsTable(fresh, snapshot.GetFetchedAt()))
	idx.lastUpdateMs.Store(time.Now().UnixMilli())
	idx.logger.Info("eds overlay table rebuilt",
		zap.Int("corridors", len(corridors)), zap.Int("edges", len(fresh)),
		zap.Duration("took", time.Since(start)))
}

type areaMatches struct {
	areaID  string
	matches []matcher.CircleMatch
}

// RebuildCustomAreas matches every area circle against the graph and swaps
// in the resulting table.
func (idx *Index) RebuildCustomAreas(snapshot *feed.CustomAreaSnapshot) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	start := time.Now()
	areas := snapshot.GetAreas()

	pool := concurrent.NewWorkerPool[feed.Area, areaMatches](runtime.NumCPU(), len(areas))
	for _, area := range areas {
		pool.AddJob(area)
	}
	pool.Close()
	pool.Start(func(area feed.Area) areaMatches {
		center := area.GetCenter()
		return areaMatches{
			areaID:  area.GetID(),
			matches: idx.circleMatcher.Match(center.GetLat(), center.GetLon(), area.GetRadiusMeters()),
		}
	})
	pool.Wait()

	fresh := make(map[datastructure.Index]AreaEntry)
	for result := range pool.CollectResults() {
		for _, match := range result.matches {
			if better(match.GetScore(), result.areaID,
				fresh[match.GetEdgeId()].matchScore, fresh[match.GetEdgeId()].areaID) {
				fresh[match.GetEdgeId()] = NewAreaEntry(result.areaID, match.GetScore())
			}
		}
	}

	idx.areas.Store(newAreaTable(fresh, snapshot.GetFetchedAt()))
	idx.lastUpdateMs.Store(time.Now().UnixMilli())
	idx.logger.Info("custom-area overlay table rebuilt",
		zap.Int("areas", len(areas)), zap.Int("edges", len(fresh)),
		zap.Duration("took", time.Since(start)))
}

type speedLimitMatches struct {
	limit   feed.SpeedLimit
	matches []matcher.LineMatch
}

// RebuildSpeedLimits matches every (corridor, vehicle class) pair against
// the graph; the winning corridor is chosen per class and edge.
func (idx *Index) RebuildSpeedLimits(snapshot *feed.SpeedLimitSnapshot) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	start := time.Now()
	limits := snapshot.GetLimits()

	pool := concurrent.NewWorkerPool[feed.SpeedLimit, speedLimitMatches](runtime.NumCPU(), len(limits))
	for _, limit := range limits {
		pool.AddJob(limit)
	}
	pool.Close()
	pool.Start(func(limit feed.SpeedLimit) speedLimitMatches {
		return speedLimitMatches{
			limit:   limit,
			matches: idx.lineMatcher.Match(limit.GetWaypoints(), matcher.SpeedLimitLineMatchParams()),
		}
	})
	pool.Wait()

	fresh := make(map[pkg.VehicleClass]map[datastructure.Index]SpeedLimitEntry)
	winners := make(map[pkg.VehicleClass]map[datastructure.Index]string)
	for result := range pool.CollectResults() {
		class := result.limit.GetVehicleClass()
		if fresh[class] == nil {
			fresh[class] = make(map[datastructure.Index]SpeedLimitEntry)
			winners[class] = make(map[datastructure.Index]string)
		}
		for _, match := range result.matches {
			edgeId := match.GetEdgeId()
			if better(match.GetScore(), result.limit.GetCorridorID(),
				fresh[class][edgeId].matchScore, winners[class][edgeId]) {
				fresh[class][edgeId] = NewSpeedLimitEntry(
					result.limit.GetTitle(), result.limit.GetSpeedKmh(), match.GetScore())
				winners[class][edgeId] = result.limit.GetCorridorID()
			}
		}
	}

	idx.speedLimits.Store(newSpeedLimitTable(fresh, snapshot.GetFetchedAt()))
	idx.lastUpdateMs.Store(time.Now().UnixMilli())
	idx.logger.Info("speed-limit overlay table rebuilt",
		zap.Int("limits", len(limits)), zap.Int("classes", len(fresh)),
		zap.Duration("took", time.Since(start)))
}

// better decides whether a (score, corridor) pair beats the incumbent:
// higher score wins, equal scores fall to the smaller corridor id. an
// empty incumbent id marks a vacant slot.
func better(score float64, corridor string, incumbentScore float64, incumbentCorridor string) bool {
	if incumbentCorridor == "" {
		return true
	}
	if score != incumbentScore {
		return score > incumbentScore
	}
	return corridor < incumbentCorridor
}

func (idx *Index) CurrentEds() *EdsTable {
	return idx.eds.Load()
}

func (idx *Index) CurrentAreas() *AreaTable {
	return idx.areas.Load()
}

func (idx *Index) CurrentSpeedLimits() *SpeedLimitTable {
	return idx.speedLimits.Load()
}

func (idx *Index) EdsEntry(edgeId datastructure.Index) (EdsEntry, bool) {
	return idx.eds.Load().Get(edgeId)
}

func (idx *Index) AreaEntry(edgeId datastructure.Index) (AreaEntry, bool) {
	return idx.areas.Load().Get(edgeId)
}

func (idx *Index) SpeedLimitEntry(class pkg.VehicleClass, edgeId datastructure.Index) (SpeedLimitEntry, bool) {
	return idx.speedLimits.Load().Get(class, edgeId)
}

func (idx *Index) LastUpdateMs() int64 {
	return idx.lastUpdateMs.Load()
}

// Stats classifies the eds table by match score: heavy > 0.7,
// moderate > 0.4, light otherwise.
func (idx *Index) Stats() Stats {
	table := idx.eds.Load()
	stats := Stats{
		total:        table.Len(),
		lastUpdateMs: idx.lastUpdateMs.Load(),
	}
	for _, entry := range table.entries {
		switch {
		case entry.matchScore > heavyTrafficScore:
			stats.heavy++
		case entry.matchScore > moderateTrafficScore:
			stats.moderate++
		default:
			stats.light++
		}
	}
	return stats
}

// HasRecentData reports whether the eds table was built from an install
// inside the stale window. a successful install with zero entries counts.
func (idx *Index) HasRecentData() bool {
	fetchedAt := idx.eds.Load().GetFetchedAt()
	if fetchedAt.IsZero() {
		return false
	}
	return time.Since(fetchedAt) <= feed.EdsStaleAfter
}

// SampleEds returns up to n eds records ordered by edge id, for the debug
// endpoint.
func (idx *Index) SampleEds(n int) []EdsSample {
	table := idx.eds.Load()
	ids := make([]datastructure.Index, 0, table.Len())
	for edgeId := range table.entries {
		ids = append(ids, edgeId)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) > n {
		ids = ids[:n]
	}
	samples := make([]EdsSample, 0, len(ids))
	for _, edgeId := range ids {
		entry := table.entries[edgeId]
		samples = append(samples, EdsSample{
			edgeId:     edgeId,
			corridor:   entry.corridor,
			matchScore: entry.matchScore,
		})
	}
	return samples
}
