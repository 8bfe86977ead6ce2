package http

import (
	"context"

	http_router "github.com/lintang-b-s/trafficx/pkg/http/router"
	"github.com/lintang-b-s/trafficx/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/trafficx/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger

	g errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the REST API, the websocket event stream and the websocket
// proxy. it returns immediately, Wait blocks until one of them stops.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	routingService controllers.RoutingService,
	overlayService controllers.OverlayService,
	events http_router.OverlayEvents,

) (*Server, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)

	viper.SetDefault("API_TIMEOUT", "1000s")

	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	config := http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		ProxyPort:     viper.GetInt("PROXY_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log)

	s.g.Go(func() error {
		return server.Run(
			ctx, config, log,
			useRateLimit, routingService, overlayService, events,
		)
	})

	return s, nil
}

// Wait blocks until the API goroutines stop, returning their first error.
func (s *Server) Wait() error {
	return s.g.Wait()
}
