package usecases

import (
	"context"
	"time"

	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"go.uber.org/zap"
)

// debugSampleSize caps how many overlay records the debug endpoint returns.
const debugSampleSize = 10

type OverlayService struct {
	log       *zap.Logger
	container OverlayContainer
}

func NewOverlayService(log *zap.Logger, container OverlayContainer) *OverlayService {
	return &OverlayService{
		log:       log,
		container: container,
	}
}

// TrafficInfo reports whether the pollers run, how many edges carry an eds
// overlay and the bracketed overlay statistics.
func (os *OverlayService) TrafficInfo() (bool, int, overlay.Stats, time.Time) {
	return os.container.FeedRunning(), os.container.Index().CurrentEds().Len(),
		os.container.Stats(), time.Now()
}

// TrafficDebug is TrafficInfo plus a small sample of matched edges.
func (os *OverlayService) TrafficDebug() (bool, int, overlay.Stats, []overlay.EdsSample, time.Time) {
	running, entries, stats, now := os.TrafficInfo()
	return running, entries, stats, os.container.Index().SampleEds(debugSampleSize), now
}

// Refresh forces one fetch+install cycle for the named feed.
func (os *OverlayService) Refresh(ctx context.Context, feedName string) error {
	f, ok := feed.ParseFeed(feedName)
	if !ok {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "unknown feed %q", feedName)
	}

	os.log.Info("manual refresh requested", zap.String("feed", feedName))
	return os.container.Refresh(ctx, f)
}
