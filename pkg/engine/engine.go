package engine

import (
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/landmark"
	"go.uber.org/zap"
)

type Engine struct {
	routingEngine *routing.RoutingEngine
	graph         *datastructure.Graph
	costFunction  costfunction.CostFunction
}

func (e *Engine) GetRoutingEngine() *routing.RoutingEngine {
	return e.routingEngine
}

func (e *Engine) GetGraph() *datastructure.Graph {
	return e.graph
}

func (e *Engine) GetCostFunction() costfunction.CostFunction {
	return e.costFunction
}

func NewEngine(graphFilePath, landmarkFilePath string, logger *zap.Logger) (*Engine, error) {
	logger.Info("Starting traffic-aware routing query engine...")

	logger.Info("Reading graph from ", zap.String("graphFilePath", graphFilePath))
	graph, err := datastructure.ReadGraph(graphFilePath)
	if err != nil {
		return nil, err
	}

	costFunction := costfunction.NewTimeCostFunction(graph)

	var landmarks *landmark.Landmark
	if landmarkFilePath != "" {
		logger.Info("Reading landmark distances from ", zap.String("landmarkFilePath", landmarkFilePath))
		landmarks, err = landmark.ReadLandmark(landmarkFilePath)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("no landmark file configured, queries fall back to the haversine heuristic")
	}

	return &Engine{
		routingEngine: routing.NewRoutingEngine(graph, costFunction, landmarks, logger),
		graph:         graph,
		costFunction:  costFunction,
	}, nil
}
