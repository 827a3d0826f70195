package telemetry

import (
	"encoding/json"
	"log"
	"time"

	uuid "github.com/google/uuid"

	"github.com/skycourier/missionrunner/internal/engine"
	"github.com/skycourier/missionrunner/internal/transport"
)

// Publisher sends a payload to one topic. Implemented by
// *transport.Connection; faked in tests.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Reporter synthesizes the outbound status, telemetry and servo payloads.
// A nil Publisher (dry run) turns every publish into a no-op.
type Reporter struct {
	pub      Publisher
	deviceID string
	topics   transport.Topics
}

func New(pub Publisher, deviceID string) *Reporter {
	return &Reporter{
		pub:      pub,
		deviceID: deviceID,
		topics:   transport.TopicsFor(deviceID),
	}
}

// PublishStatus emits the mission status record.
func (r *Reporter) PublishStatus(st engine.Status) {
	if r.pub == nil {
		return
	}
	b, _ := json.Marshal(st)
	if err := r.pub.Publish(r.topics.Status, b); err != nil {
		log.Printf("Failed to publish mission status: %v", err)
	}
}

// PublishServo emits a payload release command.
func (r *Reporter) PublishServo(cmd engine.ServoCommand) {
	if r.pub == nil {
		return
	}
	b, _ := json.Marshal(cmd)
	if err := r.pub.Publish(r.topics.Servo, b); err != nil {
		log.Printf("Failed to publish servo command: %v", err)
	}
}

type batteryBlock struct {
	Voltage    float64 `json:"voltage"`
	Percentage float64 `json:"percentage"`
}

type cameraBlock struct {
	Available  bool   `json:"available"`
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
	Recording  bool   `json:"recording"`
}

type gpsBlock struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Alt     float64 `json:"alt"`
	NumSats int     `json:"num_sats"`
	HDOP    float64 `json:"hdop"`
	Quality int     `json:"quality"`
}

type axes struct {
	X float64 `json:"x_g"`
	Y float64 `json:"y_g"`
	Z float64 `json:"z_g"`
}

type rates struct {
	X float64 `json:"x_dps"`
	Y float64 `json:"y_dps"`
	Z float64 `json:"z_dps"`
}

type imuBlock struct {
	PitchDeg float64 `json:"pitch_deg"`
	RollDeg  float64 `json:"roll_deg"`
	Accel    axes    `json:"accel"`
	Gyro     rates   `json:"gyro"`
}

type missionBlock struct {
	MissionID       string       `json:"mission_id"`
	State           engine.State `json:"state"`
	Waypoint        int          `json:"waypoint"`
	ProgressPercent float64      `json:"progress_percent"`
}

type snapshot struct {
	DeviceID     string        `json:"device_id"`
	MessageID    string        `json:"message_id"`
	Timestamp    float64       `json:"timestamp"`
	TimestampISO string        `json:"timestamp_iso"`
	Battery      batteryBlock  `json:"battery"`
	Camera       cameraBlock   `json:"camera"`
	GPS          gpsBlock      `json:"gps"`
	IMU          imuBlock      `json:"imu"`
	Mission      *missionBlock `json:"mission,omitempty"`
}

// PublishTelemetry emits the synthesized telemetry snapshot. The battery and
// camera blocks are fixed placeholders; real sensor services publish their
// own topics.
func (r *Reporter) PublishTelemetry(now time.Time, snap engine.Snapshot) {
	if r.pub == nil {
		return
	}

	t := snapshot{
		DeviceID:     r.deviceID,
		MessageID:    uuid.New().String(),
		Timestamp:    float64(now.UnixNano()) / float64(time.Second),
		TimestampISO: now.UTC().Format(time.RFC3339Nano),
		Battery:      batteryBlock{Voltage: 12.4, Percentage: 85.0},
		Camera:       cameraBlock{Available: true, Resolution: "1920x1080", FPS: 30},
		GPS: gpsBlock{
			Lat:     snap.Position.Lat,
			Lon:     snap.Position.Lon,
			Alt:     snap.Position.Alt,
			NumSats: 8,
			HDOP:    1.2,
			Quality: 1,
		},
		IMU: imuBlock{Accel: axes{Z: 1.0}},
	}
	if snap.HasMission {
		t.Mission = &missionBlock{
			MissionID:       snap.MissionID,
			State:           snap.State,
			Waypoint:        snap.Waypoint,
			ProgressPercent: snap.ProgressPercent,
		}
	}

	b, _ := json.Marshal(t)
	if err := r.pub.Publish(r.topics.Telemetry, b); err != nil {
		log.Printf("Failed to publish telemetry: %v", err)
	}
}
