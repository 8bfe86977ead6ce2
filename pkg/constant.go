package pkg

// enum of turn_type
type TurnType uint8

const (
	LEFT_TURN TurnType = iota
	RIGHT_TURN
	STRAIGHT_ON
	U_TURN
	NO_ENTRY
	NONE
)

const (
	INF_WEIGHT float64 = 1e15

	TRAFFIC_LIGHT_ADDITIONAL_WEIGHT_SECOND  = 0.0
	ALTERNATIVE_ROUTE_SIMILIARITY_THRESHOLD = 90.0
	NERF_MAXSPEED_OSM                       = 0.9
)

const (
	DEBUG = false
)

// VehicleClass identifies the per-vehicle-class speed-limit corridors of the
// speed-limit feed. Zero means "no class": the speed-limit overlay stays
// inert for such requests.
type VehicleClass uint8

const (
	VEHICLE_CLASS_NONE    VehicleClass = 0
	VEHICLE_CLASS_AUTO    VehicleClass = 1
	VEHICLE_CLASS_MINIBUS VehicleClass = 2
	VEHICLE_CLASS_BUS     VehicleClass = 3
	VEHICLE_CLASS_VAN     VehicleClass = 4
	VEHICLE_CLASS_TRUCK   VehicleClass = 5
	VEHICLE_CLASS_TRACTOR VehicleClass = 6
)

func GetVehicleClass(carTypeID int) VehicleClass {
	if carTypeID < 1 || carTypeID > 6 {
		return VEHICLE_CLASS_NONE
	}
	return VehicleClass(carTypeID)
}

func (v VehicleClass) String() string {
	switch v {
	case VEHICLE_CLASS_AUTO:
		return "auto"
	case VEHICLE_CLASS_MINIBUS:
		return "minibus"
	case VEHICLE_CLASS_BUS:
		return "bus"
	case VEHICLE_CLASS_VAN:
		return "van"
	case VEHICLE_CLASS_TRUCK:
		return "truck"
	case VEHICLE_CLASS_TRACTOR:
		return "tractor"
	default:
		return "none"
	}
}

// DefaultSpeedKmh is the baseline speed assumed for an edge when the graph
// carries no usable speed for it, per vehicle class.
func (v VehicleClass) DefaultSpeedKmh() float64 {
	switch v {
	case VEHICLE_CLASS_AUTO, VEHICLE_CLASS_MINIBUS, VEHICLE_CLASS_BUS:
		return 50.0
	case VEHICLE_CLASS_VAN:
		return 45.0
	case VEHICLE_CLASS_TRUCK, VEHICLE_CLASS_TRACTOR:
		return 40.0
	default:
		return 45.0
	}
}

const (
	// single live avoidance multiplier for flagged EDS / custom-area edges
	AVOIDANCE_PENALTY_FACTOR = 10.0

	// degree -> metre conversion used by all corridor matching
	METERS_PER_DEGREE = 111000.0

	EDS_MAX_MATCH_DISTANCE_METERS = 50.0
	EDS_MIN_MATCH_SCORE           = 0.6

	SPEED_LIMIT_MAX_MATCH_DISTANCE_METERS = 30.0
	SPEED_LIMIT_MIN_MATCH_SCORE           = 0.7

	CIRCLE_POLYGON_POINTS = 32
)

type OsmHighwayType uint8

// enum buat osm highway buat routing: https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing/Telenav
const (
	MOTORWAY       OsmHighwayType = 0
	TRUNK          OsmHighwayType = 1
	PRIMARY        OsmHighwayType = 2
	SECONDARY      OsmHighwayType = 3
	TERTIARY       OsmHighwayType = 4
	RESIDENTIAL    OsmHighwayType = 5
	SERVICE        OsmHighwayType = 6
	UNCLASSIFIED   OsmHighwayType = 7
	MOTORWAY_LINK  OsmHighwayType = 8
	TRUNK_LINK     OsmHighwayType = 9
	PRIMARY_LINK   OsmHighwayType = 10
	SECONDARY_LINK OsmHighwayType = 11
	TERTIARY_LINK  OsmHighwayType = 12
	LIVING_STREET  OsmHighwayType = 13
	ROAD           OsmHighwayType = 14
	TRACK          OsmHighwayType = 15
	MOTORROAD      OsmHighwayType = 16
	UNKNOWN        OsmHighwayType = 17
)

func GetHighwayType(roadType string) OsmHighwayType {
	switch roadType {
	case "motorway":
		return MOTORWAY
	case "trunk":
		return TRUNK
	case "primary":
		return PRIMARY
	case "secondary":
		return SECONDARY
	case "tertiary":
		return TERTIARY
	case "unclassified":
		return UNCLASSIFIED
	case "residential":
		return RESIDENTIAL
	case "service":
		return SERVICE
	case "motorway_link":
		return MOTORWAY_LINK
	case "trunk_link":
		return TRUNK_LINK
	case "primary_link":
		return PRIMARY_LINK
	case "secondary_link":
		return SECONDARY_LINK
	case "tertiary_link":
		return TERTIARY_LINK
	case "living_street":
		return LIVING_STREET
	case "road":
		return ROAD
	case "track":
		return TRACK
	case "motorroad":
		return MOTORROAD
	default:
		return UNKNOWN
	}
}

// DefaultHighwaySpeedKmh returns the assumed free-flow speed for a highway
// class when a way carries no maxspeed tag.
func DefaultHighwaySpeedKmh(h OsmHighwayType) float64 {
	switch h {
	case MOTORWAY, MOTORROAD:
		return 100.0
	case MOTORWAY_LINK:
		return 60.0
	case TRUNK:
		return 80.0
	case TRUNK_LINK:
		return 50.0
	case PRIMARY:
		return 60.0
	case PRIMARY_LINK:
		return 45.0
	case SECONDARY:
		return 50.0
	case SECONDARY_LINK:
		return 40.0
	case TERTIARY:
		return 45.0
	case TERTIARY_LINK:
		return 35.0
	case RESIDENTIAL, UNCLASSIFIED, ROAD:
		return 30.0
	case LIVING_STREET:
		return 10.0
	case SERVICE, TRACK:
		return 20.0
	default:
		return 30.0
	}
}
