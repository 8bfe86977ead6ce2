package feed

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseEds(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		wantCorridors int
		wantErr       bool
	}{
		{
			name: "linestring features become corridors",
			body: `[{"features":[
				{"geometry":{"type":"LineString","coordinates":[[32.52,37.98],[32.53,37.97]]},"properties":{"Name":"corridor-a"}},
				{"geometry":{"type":"LineString","coordinates":[[32.54,37.96],[32.55,37.95],[32.56,37.94]]},"properties":{"Name":"corridor-b"}}
			]}]`,
			wantCorridors: 2,
		},
		{
			name: "non linestring geometry skipped",
			body: `[{"features":[
				{"geometry":{"type":"Point","coordinates":[[32.52,37.98]]},"properties":{"Name":"point-feature"}},
				{"geometry":{"type":"LineString","coordinates":[[32.52,37.98],[32.53,37.97]]},"properties":{"Name":"corridor-a"}}
			]}]`,
			wantCorridors: 1,
		},
		{
			name: "fewer than two coordinates skipped",
			body: `[{"features":[
				{"geometry":{"type":"LineString","coordinates":[[32.52,37.98]]},"properties":{"Name":"too-short"}}
			]}]`,
			wantCorridors: 0,
		},
		{
			name: "missing corridor name skipped",
			body: `[{"features":[
				{"geometry":{"type":"LineString","coordinates":[[32.52,37.98],[32.53,37.97]]},"properties":{}}
			]}]`,
			wantCorridors: 0,
		},
		{
			name:          "empty feed",
			body:          `[]`,
			wantCorridors: 0,
		},
		{
			name:    "malformed envelope fails the parse",
			body:    `{"features":`,
			wantErr: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			corridors, err := ParseEds([]byte(tt.body), zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, corridors, tt.wantCorridors)
		})
	}
}

func TestParseEdsCoordinateOrder(t *testing.T) {
	body := `[{"features":[
		{"geometry":{"type":"LineString","coordinates":[[32.52,37.98],[32.53,37.97]]},"properties":{"Name":"corridor-a"}}
	]}]`

	corridors, err := ParseEds([]byte(body), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, corridors, 1)

	waypoints := corridors[0].GetWaypoints()
	require.Len(t, waypoints, 2)
	// wire order is [lon, lat]
	assert.InDelta(t, 37.98, waypoints[0].GetLat(), 1e-9)
	assert.InDelta(t, 32.52, waypoints[0].GetLon(), 1e-9)
}

func TestParseCustomAreas(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantAreas int
		wantErr   bool
	}{
		{
			name:      "valid area",
			body:      `[{"id":"area-1","location":"37.95, 32.53","half_diameter":500}]`,
			wantAreas: 1,
		},
		{
			name:      "numeric id accepted",
			body:      `[{"id":17,"location":"37.95, 32.53","half_diameter":500}]`,
			wantAreas: 1,
		},
		{
			name:      "malformed location dropped",
			body:      `[{"id":"area-1","location":"37.95;32.53","half_diameter":500}]`,
			wantAreas: 0,
		},
		{
			name:      "latitude out of range dropped",
			body:      `[{"id":"area-1","location":"95.0, 32.53","half_diameter":500}]`,
			wantAreas: 0,
		},
		{
			name:      "longitude out of range dropped",
			body:      `[{"id":"area-1","location":"37.95, 181.0","half_diameter":500}]`,
			wantAreas: 0,
		},
		{
			name:      "zero radius rejected",
			body:      `[{"id":"area-1","location":"37.95, 32.53","half_diameter":0}]`,
			wantAreas: 0,
		},
		{
			name:      "negative radius rejected",
			body:      `[{"id":"area-1","location":"37.95, 32.53","half_diameter":-250}]`,
			wantAreas: 0,
		},
		{
			name:      "missing id dropped",
			body:      `[{"location":"37.95, 32.53","half_diameter":500}]`,
			wantAreas: 0,
		},
		{
			name:    "malformed envelope fails the parse",
			body:    `{"id":`,
			wantErr: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			areas, err := ParseCustomAreas([]byte(tt.body), zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, areas, tt.wantAreas)
		})
	}
}

func TestParseCustomAreasFields(t *testing.T) {
	body := `[{"id":"area-1","location":"37.95, 32.53","half_diameter":500}]`

	areas, err := ParseCustomAreas([]byte(body), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, areas, 1)

	area := areas[0]
	assert.Equal(t, "area-1", area.GetID())
	assert.InDelta(t, 37.95, area.GetCenter().GetLat(), 1e-9)
	assert.InDelta(t, 32.53, area.GetCenter().GetLon(), 1e-9)
	assert.InDelta(t, 500.0, area.GetRadiusMeters(), 1e-9)
}

func TestParseSpeedLimits(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantLimits int
		wantErr    bool
	}{
		{
			name: "one entry per item and car pair",
			body: `{"data":{"items":[{
				"id":"sl-1","title":"Ring Road",
				"linestring":{"coordinates":[[32.52,37.98],[32.53,37.97]]},
				"cars":[{"car_id":1,"car_name":"auto","speed":70},{"car_id":5,"car_name":"truck","speed":50}]
			}]}}`,
			wantLimits: 2,
		},
		{
			name: "unknown vehicle class skipped",
			body: `{"data":{"items":[{
				"id":"sl-1","title":"Ring Road",
				"linestring":{"coordinates":[[32.52,37.98],[32.53,37.97]]},
				"cars":[{"car_id":9,"car_name":"hovercraft","speed":70}]
			}]}}`,
			wantLimits: 0,
		},
		{
			name: "non positive speed skipped",
			body: `{"data":{"items":[{
				"id":"sl-1","title":"Ring Road",
				"linestring":{"coordinates":[[32.52,37.98],[32.53,37.97]]},
				"cars":[{"car_id":1,"car_name":"auto","speed":0}]
			}]}}`,
			wantLimits: 0,
		},
		{
			name: "short linestring skipped",
			body: `{"data":{"items":[{
				"id":"sl-1","title":"Ring Road",
				"linestring":{"coordinates":[[32.52,37.98]]},
				"cars":[{"car_id":1,"car_name":"auto","speed":70}]
			}]}}`,
			wantLimits: 0,
		},
		{
			name:       "empty envelope",
			body:       `{"data":{"items":[]}}`,
			wantLimits: 0,
		},
		{
			name:    "malformed envelope fails the parse",
			body:    `{"data":{`,
			wantErr: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			limits, err := ParseSpeedLimits([]byte(tt.body), zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, limits, tt.wantLimits)
		})
	}
}

func TestParseSpeedLimitsFields(t *testing.T) {
	body := `{"data":{"items":[{
		"id":42,"title":"Ring Road",
		"linestring":{"coordinates":[[32.52,37.98],[32.53,37.97]]},
		"cars":[{"car_id":5,"car_name":"truck","speed":50}]
	}]}}`

	limits, err := ParseSpeedLimits([]byte(body), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, limits, 1)

	limit := limits[0]
	assert.Equal(t, "42", limit.GetCorridorID())
	assert.Equal(t, "Ring Road", limit.GetTitle())
	assert.Equal(t, pkg.VEHICLE_CLASS_TRUCK, limit.GetVehicleClass())
	assert.InDelta(t, 50.0, limit.GetSpeedKmh(), 1e-9)
	assert.Len(t, limit.GetWaypoints(), 2)
}
