package mission

// Defaults applied when a mission descriptor leaves the field out.
const (
	DefaultSpeed    = 5.0  // m/s
	DefaultAltitude = 50.0 // meters
)

// Waypoint is one target position in a mission. Immutable once loaded.
type Waypoint struct {
	Lat         float64                `json:"lat"`
	Lon         float64                `json:"lon"`
	Alt         float64                `json:"alt"`
	HoldSeconds float64                `json:"hold_seconds"`
	Action      string                 `json:"action"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Mission is an ordered collection of waypoints and flight parameters for
// one delivery run. Exactly one mission is active per engine instance.
type Mission struct {
	ID              string                 `json:"mission_id"`
	Name            string                 `json:"name"`
	Waypoints       []Waypoint             `json:"waypoints"`
	PayloadMetadata map[string]interface{} `json:"payload_metadata,omitempty"`
	MaxSpeed        float64                `json:"max_speed"`
	DefaultAltitude float64                `json:"default_altitude"`
}
