package routing

const (
	// stopping multiplier of the point-to-point bidirectional search. the
	// alternative-route search widens it with the per-request exploration
	// factor so that detours slightly longer than the optimum stay reachable.
	UPPERBOUND_SHORTEST_PATH = 1.0

	// minimum plateau length of an admissible alternative route, as a
	// fraction of the shortest path weight (see Abraham et al., Alternative
	// Routes in Road Networks, section 2).
	PLATEAU_ALPHA = 0.1

	// number of workers evaluating via-vertex candidates concurrently.
	ALTERNATIVE_ROUTE_WORKERS = 4

	// capacity of the shared shortest-path result cache.
	PATH_CACHE_SIZE = 1 << 20
)
