package main

import (
	"flag"

	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/landmark"
	"github.com/lintang-b-s/trafficx/pkg/logger"
	"github.com/lintang-b-s/trafficx/pkg/osmparser"
	"go.uber.org/zap"
)

var (
	mapFile       = flag.String("map", "./data/solonesia.osm.pbf", "openstreetmap pbf extract")
	graphOut      = flag.String("out", "./data/car.graph", "output graph file")
	landmarkOut   = flag.String("landmark_out", "./data/landmark.txt", "output landmark file, empty to skip ALT preprocessing")
	landmarkCount = flag.Int("landmarks", 16, "number of landmark sectors for ALT")
)

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}

	osmParser := osmparser.NewOSMParser()
	graph, err := osmParser.Parse(*mapFile, log)
	if err != nil {
		panic(err)
	}

	// condense strongly connected components once at build time, queries use
	// them to pair snapped endpoints.
	graph.RunKosaraju()

	if err := graph.WriteGraph(*graphOut); err != nil {
		panic(err)
	}
	log.Info("graph written", zap.String("file", *graphOut),
		zap.Int("vertices", graph.NumberOfVertices()), zap.Int("edges", graph.NumberOfEdges()))

	if *landmarkOut != "" {
		landmarks := landmark.NewLandmark()
		if err := landmarks.PreprocessALT(*landmarkCount, graph,
			costfunction.NewTimeCostFunction(graph), log); err != nil {
			panic(err)
		}
		if err := landmarks.WriteLandmark(*landmarkOut); err != nil {
			panic(err)
		}
		log.Info("landmark distances written", zap.String("file", *landmarkOut))
	}

	log.Sugar().Infof("graph build completed successfully.")
}
