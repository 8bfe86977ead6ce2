package overlay

import (
	"context"
	"sync"
	"time"

	"github.com/lintang-b-s/trafficx/pkg/feed"
	"go.uber.org/zap"
)

// Event describes one completed overlay rebuild, for push consumers such
// as the websocket hub.
type Event struct {
	feed      feed.Feed
	entries   int
	stats     Stats
	timestamp time.Time
}

func (e Event) GetFeed() feed.Feed {
	return e.feed
}

func (e Event) GetEntries() int {
	return e.entries
}

func (e Event) GetStats() Stats {
	return e.stats
}

func (e Event) GetTimestamp() time.Time {
	return e.timestamp
}

// Container ties the feed pollers to the overlay index: every installed
// snapshot is rebuilt into its table on the poller's goroutine, then
// announced to listeners. it is the single object the server wires in.
type Container struct {
	feedService *feed.Service
	index       *Index
	logger      *zap.Logger

	listenerMu sync.Mutex
	listeners  []func(Event)
}

func NewContainer(feedService *feed.Service, index *Index, logger *zap.Logger) *Container {
	c := &Container{
		feedService: feedService,
		index:       index,
		logger:      logger,
	}
	feedService.OnUpdate(c.onFeedUpdate)
	return c
}

// OnOverlayUpdate registers a listener for rebuild events. listeners run
// synchronously on the rebuilding goroutine and must not block.
func (c *Container) OnOverlayUpdate(listener func(Event)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Container) Start(ctx context.Context) {
	c.feedService.Start(ctx)
}

func (c *Container) Stop() {
	c.feedService.Stop()
}

// Refresh forces one fetch of the named feed. a successful install rebuilds
// the table before Refresh returns, via the feed observer.
func (c *Container) Refresh(ctx context.Context, f feed.Feed) error {
	return c.feedService.Refresh(ctx, f)
}

func (c *Container) Index() *Index {
	return c.index
}

func (c *Container) Stats() Stats {
	return c.index.Stats()
}

func (c *Container) HasRecentData() bool {
	return c.index.HasRecentData()
}

func (c *Container) FeedRunning() bool {
	return c.feedService.Running()
}

func (c *Container) onFeedUpdate(f feed.Feed) {
	var entries int
	switch f {
	case feed.FeedEds:
		c.index.RebuildEds(c.feedService.CurrentEds())
		entries = c.index.CurrentEds().Len()
	case feed.FeedCustomAreas:
		c.index.RebuildCustomAreas(c.feedService.CurrentCustomAreas())
		entries = c.index.CurrentAreas().Len()
	case feed.FeedSpeedLimits:
		c.index.RebuildSpeedLimits(c.feedService.CurrentSpeedLimits())
		entries = c.index.CurrentSpeedLimits().Len()
	default:
		c.logger.Warn("snapshot installed for unknown feed", zap.String("feed", f.String()))
		return
	}

	event := Event{
		feed:      f,
		entries:   entries,
		stats:     c.index.Stats(),
		timestamp: time.Now(),
	}
	c.listenerMu.Lock()
	listeners := make([]func(Event), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.Unlock()
	for _, listener := range listeners {
		listener(event)
	}
}
