package controllers

import (
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
)

type routeRequest struct {
	OriginLat      float64 `json:"origin_lat" validate:"required,min=-90,max=90"`
	OriginLon      float64 `json:"origin_lon" validate:"required,min=-180,max=180"`
	DestinationLat float64 `json:"destination_lat" validate:"required,min=-90,max=90"`
	DestinationLon float64 `json:"destination_lon" validate:"required,min=-180,max=180"`
	Profile        string  `json:"profile" validate:"omitempty,oneof=car foot bike"`
	CarTypeID      int     `json:"car_type_id" validate:"min=0,max=6"`

	AvoidEdsRoads     bool `json:"avoid_eds_roads"`
	AvoidCustomAreas  bool `json:"avoid_custom_areas"`
	EnableSpeedLimits bool `json:"enable_speed_limits"`
	TrafficAware      bool `json:"traffic_aware"`
	AlternativeRoute  bool `json:"alternative_route"`
}

type routeSummary struct {
	Eta      float64 `json:"eta"`
	Distance float64 `json:"distance"`
	Path     string  `json:"path"`
}

type routeResponse struct {
	Routes                   []routeSummary `json:"routes"`
	EdsOverlayActive         bool           `json:"eds_overlay_active"`
	CustomAreasOverlayActive bool           `json:"custom_areas_overlay_active"`
	SpeedLimitsActive        bool           `json:"speed_limits_active"`
	FallbackToNormalRouting  bool           `json:"fallback_to_normal_routing"`
}

func NewRouteResponse(routes []*routing.AlternativeRoute, flags overlay.Flags,
	degraded bool) routeResponse {
	summaries := make([]routeSummary, 0, len(routes))
	for _, route := range routes {
		summaries = append(summaries, routeSummary{
			Eta:      route.GetTravelTime(),
			Distance: route.GetDist(),
			Path:     route.GetPolylinePath(),
		})
	}

	return routeResponse{
		Routes:                   summaries,
		EdsOverlayActive:         flags.AvoidEdsRoads(),
		CustomAreasOverlayActive: flags.AvoidCustomAreas(),
		SpeedLimitsActive:        flags.VehicleClass() != pkg.VEHICLE_CLASS_NONE,
		FallbackToNormalRouting:  degraded,
	}
}

type overlayStatsResponse struct {
	TotalEdges           int   `json:"total_edges"`
	HeavyTrafficEdges    int   `json:"heavy_traffic_edges"`
	ModerateTrafficEdges int   `json:"moderate_traffic_edges"`
	LightTrafficEdges    int   `json:"light_traffic_edges"`
	LastUpdateMs         int64 `json:"last_update_ms"`
}

func newOverlayStatsResponse(stats overlay.Stats) overlayStatsResponse {
	return overlayStatsResponse{
		TotalEdges:           stats.GetTotal(),
		HeavyTrafficEdges:    stats.GetHeavy(),
		ModerateTrafficEdges: stats.GetModerate(),
		LightTrafficEdges:    stats.GetLight(),
		LastUpdateMs:         stats.GetLastUpdateMs(),
	}
}

type trafficInfoResponse struct {
	FeedRunning  bool                 `json:"feed_running"`
	EdsEntries   int                  `json:"eds_entries"`
	OverlayStats overlayStatsResponse `json:"overlay_stats"`
	Timestamp    string               `json:"timestamp"`
}

func NewTrafficInfoResponse(running bool, entries int, stats overlay.Stats,
	ts time.Time) trafficInfoResponse {
	return trafficInfoResponse{
		FeedRunning:  running,
		EdsEntries:   entries,
		OverlayStats: newOverlayStatsResponse(stats),
		Timestamp:    ts.Format(time.RFC3339),
	}
}

type edsSampleResponse struct {
	EdgeID     uint32  `json:"edge_id"`
	Corridor   string  `json:"corridor"`
	MatchScore float64 `json:"match_score"`
}

type trafficDebugResponse struct {
	trafficInfoResponse
	Samples []edsSampleResponse `json:"samples"`
}

func NewTrafficDebugResponse(running bool, entries int, stats overlay.Stats,
	samples []overlay.EdsSample, ts time.Time) trafficDebugResponse {
	out := trafficDebugResponse{
		trafficInfoResponse: NewTrafficInfoResponse(running, entries, stats, ts),
		Samples:             make([]edsSampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		out.Samples = append(out.Samples, edsSampleResponse{
			EdgeID:     uint32(s.GetEdgeId()),
			Corridor:   s.GetCorridor(),
			MatchScore: s.GetMatchScore(),
		})
	}
	return out
}

type refreshResponse struct {
	Feed   string `json:"feed"`
	Status string `json:"status"`
}

func NewRefreshResponse(feedName string) refreshResponse {
	return refreshResponse{
		Feed:   feedName,
		Status: "refreshed",
	}
}

type overlayEventResponse struct {
	Feed      string               `json:"feed"`
	Entries   int                  `json:"entries"`
	Stats     overlayStatsResponse `json:"stats"`
	Timestamp string               `json:"timestamp"`
}

func NewOverlayEventResponse(event overlay.Event) overlayEventResponse {
	return overlayEventResponse{
		Feed:      event.GetFeed().String(),
		Entries:   event.GetEntries(),
		Stats:     newOverlayStatsResponse(event.GetStats()),
		Timestamp: event.GetTimestamp().Format(time.RFC3339),
	}
}

type wsRequest struct {
	Action string `json:"action" validate:"required,oneof=stats"`
}
