package feed

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/trafficx/pkg/util"
	"go.uber.org/zap"
)

const (
	edsPeriod         = 24 * time.Hour
	customAreasPeriod = 6 * time.Hour
	speedLimitsPeriod = 6 * time.Hour

	// EdsStaleAfter bounds how long the last eds install counts as recent.
	// the overlay keeps serving older data, it just reports it as stale.
	EdsStaleAfter         = 48 * time.Hour
	CustomAreasStaleAfter = 12 * time.Hour
	SpeedLimitsStaleAfter = 12 * time.Hour

	shutdownGrace = 5 * time.Second
)

type Config struct {
	edsURL         string
	customAreasURL string
	speedLimitsURL string
}

func NewConfig(edsURL, customAreasURL, speedLimitsURL string) Config {
	return Config{
		edsURL:         edsURL,
		customAreasURL: customAreasURL,
		speedLimitsURL: speedLimitsURL,
	}
}

func (c Config) GetEdsURL() string {
	return c.edsURL
}

func (c Config) GetCustomAreasURL() string {
	return c.customAreasURL
}

func (c Config) GetSpeedLimitsURL() string {
	return c.speedLimitsURL
}

// Service owns the three feed pollers and their published snapshots. each
// poller fetches once at startup and then on its own ticker; a failed fetch
// keeps the previous snapshot. snapshot getters are lock-free.
type Service struct {
	client *Client
	config Config
	logger *zap.Logger

	eds         atomic.Pointer[EdsSnapshot]
	customAreas atomic.Pointer[CustomAreaSnapshot]
	speedLimits atomic.Pointer[SpeedLimitSnapshot]

	observerMu sync.Mutex
	observers  []func(Feed)

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(client *Client, config Config, logger *zap.Logger) *Service {
	s := &Service{
		client: client,
		config: config,
		logger: logger,
	}
	s.eds.Store(EmptyEdsSnapshot())
	s.customAreas.Store(EmptyCustomAreaSnapshot())
	s.speedLimits.Store(EmptySpeedLimitSnapshot())
	return s
}

// OnUpdate registers an observer invoked after every successful snapshot
// install, on the installing poller's goroutine. register before Start.
func (s *Service) OnUpdate(observer func(Feed)) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observers = append(s.observers, observer)
}

// Start launches the pollers. a feed with an empty url stays stopped.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running.Store(true)

	s.startPoller(runCtx, FeedEds, s.config.GetEdsURL(), edsPeriod)
	s.startPoller(runCtx, FeedCustomAreas, s.config.GetCustomAreasURL(), customAreasPeriod)
	s.startPoller(runCtx, FeedSpeedLimits, s.config.GetSpeedLimitsURL(), speedLimitsPeriod)
}

func (s *Service) startPoller(ctx context.Context, feed Feed, url string, period time.Duration) {
	if url == "" {
		s.logger.Info("feed poller disabled, no url configured", zap.String("feed", feed.String()))
		return
	}
	s.wg.Add(1)
	go s.poll(ctx, feed, period)
}

func (s *Service) poll(ctx context.Context, feed Feed, period time.Duration) {
	defer s.wg.Done()

	if err := s.Refresh(ctx, feed); err != nil {
		s.logger.Warn("initial feed fetch failed",
			zap.String("feed", feed.String()), zap.Error(err))
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx, feed); err != nil {
				s.logger.Warn("feed refresh failed, keeping previous snapshot",
					zap.String("feed", feed.String()), zap.Error(err))
			}
		}
	}
}

// Stop cancels the pollers and waits up to the shutdown grace period for any
// in-flight fetch to finish.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.logger.Warn("feed pollers still busy after shutdown grace period")
	}
	s.running.Store(false)
}

func (s *Service) Running() bool {
	return s.running.Load()
}

func (s *Service) CurrentEds() *EdsSnapshot {
	return s.eds.Load()
}

func (s *Service) CurrentCustomAreas() *CustomAreaSnapshot {
	return s.customAreas.Load()
}

func (s *Service) CurrentSpeedLimits() *SpeedLimitSnapshot {
	return s.speedLimits.Load()
}

// Refresh fetches and installs one feed immediately. the fetch detaches from
// ctx cancellation so a shutdown only bounds it through the grace period, but
// stays capped by the client timeout.
func (s *Service) Refresh(ctx context.Context, feed Feed) error {
	fetchCtx, cancelFetch := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
	defer cancelFetch()

	var err error
	switch feed {
	case FeedEds:
		err = s.refreshEds(fetchCtx)
	case FeedCustomAreas:
		err = s.refreshCustomAreas(fetchCtx)
	case FeedSpeedLimits:
		err = s.refreshSpeedLimits(fetchCtx)
	default:
		err = util.WrapErrorf(nil, util.ErrBadParamInput, "feed.Service.Refresh: unknown feed %d", feed)
	}
	if err != nil {
		return err
	}

	s.notify(feed)
	return nil
}

func (s *Service) refreshEds(ctx context.Context) error {
	var raw json.RawMessage
	if err := s.client.GetJSON(ctx, s.config.GetEdsURL(), &raw); err != nil {
		return err
	}
	corridors, err := ParseEds(raw, s.logger)
	if err != nil {
		return err
	}
	s.eds.Store(NewEdsSnapshot(corridors, time.Now()))
	s.logger.Info("eds snapshot installed", zap.Int("corridors", len(corridors)))
	return nil
}

func (s *Service) refreshCustomAreas(ctx context.Context) error {
	var raw json.RawMessage
	if err := s.client.GetJSON(ctx, s.config.GetCustomAreasURL(), &raw); err != nil {
		return err
	}
	areas, err := ParseCustomAreas(raw, s.logger)
	if err != nil {
		return err
	}
	s.customAreas.Store(NewCustomAreaSnapshot(areas, time.Now()))
	s.logger.Info("custom-area snapshot installed", zap.Int("areas", len(areas)))
	return nil
}

func (s *Service) refreshSpeedLimits(ctx context.Context) error {
	var raw json.RawMessage
	if err := s.client.GetJSON(ctx, s.config.GetSpeedLimitsURL(), &raw); err != nil {
		return err
	}
	limits, err := ParseSpeedLimits(raw, s.logger)
	if err != nil {
		return err
	}
	s.speedLimits.Store(NewSpeedLimitSnapshot(limits, time.Now()))
	s.logger.Info("speed-limit snapshot installed", zap.Int("limits", len(limits)))
	return nil
}

func (s *Service) notify(feed Feed) {
	s.observerMu.Lock()
	observers := make([]func(Feed), len(s.observers))
	copy(observers, s.observers)
	s.observerMu.Unlock()

	for _, observer := range observers {
		observer(feed)
	}
}
