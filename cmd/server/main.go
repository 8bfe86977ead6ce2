package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/trafficx/pkg/engine"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/http"
	"github.com/lintang-b-s/trafficx/pkg/http/usecases"
	"github.com/lintang-b-s/trafficx/pkg/logger"
	"github.com/lintang-b-s/trafficx/pkg/matcher"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/lintang-b-s/trafficx/pkg/spatialindex"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	graphPath             = flag.String("graph", "./data/car.graph", "routing graph file")
	landmarkPath          = flag.String("landmark", "./data/landmark.txt", "precomputed landmark file, empty to disable ALT")
	leafBoundingBoxRadius = flag.Float64("leaf_bounding_box_radius", 0.05, "leaf node (r-tree) bounding box radius in km")
	snapK                 = flag.Int("snap_k", 4, "nearest vertex candidates per query endpoint")
	useRateLimit          = flag.Bool("rate_limit", false, "rate limit the REST API")
)

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}

	if err := util.ReadConfig(); err != nil {
		log.Warn("config.yaml not found, running on defaults", zap.Error(err))
	}

	routingEngine, err := engine.NewEngine(*graphPath, *landmarkPath, log)
	if err != nil {
		panic(err)
	}

	graph := routingEngine.GetGraph()

	rtree := spatialindex.NewRtree(graph)
	rtree.Build(*leafBoundingBoxRadius, log)

	geometries, err := matcher.NewGeometryCache(graph)
	if err != nil {
		panic(err)
	}
	lineMatcher := matcher.NewLineMatcher(graph, geometries, rtree, log)
	circleMatcher := matcher.NewCircleMatcher(graph, geometries, rtree, log)

	feedConfig := feed.NewConfig(viper.GetString("FEED_EDS_URL"),
		viper.GetString("FEED_CUSTOM_AREAS_URL"), viper.GetString("FEED_SPEED_LIMITS_URL"))
	feedService := feed.NewService(feed.NewClient(), feedConfig, log)

	overlayIndex := overlay.NewIndex(lineMatcher, circleMatcher, log)
	container := overlay.NewContainer(feedService, overlayIndex, log)

	binder := overlay.NewBinder(overlayIndex, routingEngine.GetCostFunction(),
		graph.NumberOfEdges(), log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if viper.GetBool("FEED_AUTO_START") {
		container.Start(ctx)
		defer container.Stop()
	}

	api := http.NewServer(log)

	routingService := usecases.NewRoutingService(log, routingEngine.GetRoutingEngine(), rtree,
		binder, *snapK)
	overlayService := usecases.NewOverlayService(log, container)

	if _, err := api.Use(ctx, log, *useRateLimit, routingService, overlayService, container); err != nil {
		panic(err)
	}

	if err := api.Wait(); err != nil {
		log.Info("trafficx routing engine server stopped", zap.Error(err))
	}
}
