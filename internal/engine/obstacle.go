package engine

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Obstacles at or below this confidence are ignored entirely.
const obstacleConfidenceThreshold = 0.7

// ObstacleEvent is a detection published by the vision service. Coordinates
// are optional; missing axes fall back to the vehicle's current position.
type ObstacleEvent struct {
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	Alt        *float64 `json:"alt,omitempty"`
}

// DecodeObstacle parses an obstacles payload.
func DecodeObstacle(payload []byte) (ObstacleEvent, error) {
	var ev ObstacleEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ObstacleEvent{}, errors.Wrap(err, "malformed obstacle payload")
	}
	return ev, nil
}
