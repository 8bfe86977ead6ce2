package controllers

import (
	"context"
	"time"

	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
)

type RoutingService interface {
	Route(origLat, origLon, dstLat, dstLon float64,
		request overlay.RouteRequest) ([]*routing.AlternativeRoute, overlay.Flags, bool, error)
}

type OverlayService interface {
	TrafficInfo() (bool, int, overlay.Stats, time.Time)
	TrafficDebug() (bool, int, overlay.Stats, []overlay.EdsSample, time.Time)
	Refresh(ctx context.Context, feedName string) error
}
