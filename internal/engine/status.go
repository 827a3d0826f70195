package engine

import (
	"math"
	"time"

	"github.com/skycourier/missionrunner/internal/kinematics"
)

// Status is the derived mission status published on the status topic. It is
// recomputed on every publish and never persisted.
type Status struct {
	MissionID              string              `json:"mission_id"`
	State                  State               `json:"state"`
	CurrentWaypoint        int                 `json:"current_waypoint"`
	TotalWaypoints         int                 `json:"total_waypoints"`
	ProgressPercent        float64             `json:"progress_percent"`
	EstimatedTimeRemaining float64             `json:"estimated_time_remaining"`
	CurrentPosition        kinematics.Position `json:"current_position"`
	TargetPosition         kinematics.Position `json:"target_position"`
	Speed                  float64             `json:"speed"`
	Timestamp              float64             `json:"timestamp"`
	ErrorMessage           string              `json:"error_message,omitempty"`
}

// ServoCommand asks the payload actuator to release at a waypoint.
type ServoCommand struct {
	DeviceID        string                 `json:"device_id"`
	Timestamp       float64                `json:"timestamp"`
	Command         string                 `json:"command"`
	Waypoint        int                    `json:"waypoint"`
	PayloadMetadata map[string]interface{} `json:"payload_metadata"`
}

// Snapshot is the engine view consumed by the telemetry publisher. It is
// valid even when no mission is loaded.
type Snapshot struct {
	Position        kinematics.Position
	HasMission      bool
	MissionID       string
	State           State
	Waypoint        int
	ProgressPercent float64
}

// Status reports the derived mission status. ok is false when no mission is
// loaded; nothing is published in that case.
func (e *Engine) Status(now time.Time) (Status, bool) {
	if e.mission == nil {
		return Status{}, false
	}

	total := len(e.mission.Waypoints)
	progress := float64(e.waypointIndex) / float64(total) * 100

	// ETA extrapolates total duration from progress so far.
	elapsed := now.Sub(e.missionStart).Seconds()
	var remaining float64
	if progress > 0 {
		estimatedTotal := elapsed / (progress / 100)
		remaining = math.Max(0, estimatedTotal-elapsed)
	}

	return Status{
		MissionID:              e.mission.ID,
		State:                  e.state,
		CurrentWaypoint:        e.waypointIndex,
		TotalWaypoints:         total,
		ProgressPercent:        progress,
		EstimatedTimeRemaining: remaining,
		CurrentPosition:        e.current,
		TargetPosition:         e.target,
		Speed:                  e.speed,
		Timestamp:              unixSeconds(now),
		ErrorMessage:           e.errorMessage,
	}, true
}

// Snapshot reports the engine view for telemetry synthesis.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Position: e.current,
		State:    e.state,
	}
	if e.mission != nil {
		snap.HasMission = true
		snap.MissionID = e.mission.ID
		snap.Waypoint = e.waypointIndex
		snap.ProgressPercent = float64(e.waypointIndex) / float64(len(e.mission.Waypoints)) * 100
	}
	return snap
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
