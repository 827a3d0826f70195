package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycourier/missionrunner/internal/engine"
	"github.com/skycourier/missionrunner/internal/kinematics"
)

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestPublishStatus(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	r := New(pub, "drone-1")

	r.PublishStatus(engine.Status{
		MissionID:       "m1",
		State:           engine.StateEnroute,
		CurrentWaypoint: 1,
		TotalWaypoints:  4,
		ProgressPercent: 25,
	})

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "drone/drone-1/mission/status", pub.topics[0])

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "m1", got["mission_id"])
	assert.Equal(t, "ENROUTE", got["state"])
	assert.Equal(t, 25.0, got["progress_percent"])
	// Empty error message is omitted from the wire format.
	assert.NotContains(t, got, "error_message")
}

func TestPublishTelemetry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("without a mission", func(t *testing.T) {
		t.Parallel()
		pub := &fakePublisher{}
		r := New(pub, "drone-1")

		r.PublishTelemetry(now, engine.Snapshot{
			Position: kinematics.Position{Lat: 10, Lon: 20, Alt: 30},
			State:    engine.StateIdle,
		})

		require.Len(t, pub.topics, 1)
		assert.Equal(t, "drone/drone-1/telemetry", pub.topics[0])

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
		assert.Equal(t, "drone-1", got["device_id"])
		assert.NotEmpty(t, got["message_id"])
		assert.NotContains(t, got, "mission")

		gps := got["gps"].(map[string]interface{})
		assert.Equal(t, 10.0, gps["lat"])
		assert.Equal(t, 30.0, gps["alt"])
		assert.Equal(t, 8.0, gps["num_sats"])

		battery := got["battery"].(map[string]interface{})
		assert.Equal(t, 12.4, battery["voltage"])
		assert.Equal(t, 85.0, battery["percentage"])
	})

	t.Run("with a mission", func(t *testing.T) {
		t.Parallel()
		pub := &fakePublisher{}
		r := New(pub, "drone-1")

		r.PublishTelemetry(now, engine.Snapshot{
			HasMission:      true,
			MissionID:       "m1",
			State:           engine.StateHold,
			Waypoint:        2,
			ProgressPercent: 50,
		})

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
		m := got["mission"].(map[string]interface{})
		assert.Equal(t, "m1", m["mission_id"])
		assert.Equal(t, "HOLD", m["state"])
		assert.Equal(t, 2.0, m["waypoint"])
		assert.Equal(t, 50.0, m["progress_percent"])
	})
}

func TestPublishServo(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	r := New(pub, "drone-1")

	r.PublishServo(engine.ServoCommand{
		DeviceID:        "drone-1",
		Command:         "release",
		Waypoint:        3,
		PayloadMetadata: map[string]interface{}{"contents": "medkit"},
	})

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "drone/drone-1/servo/command", pub.topics[0])

	var got engine.ServoCommand
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "release", got.Command)
	assert.Equal(t, 3, got.Waypoint)
}

func TestPublishFailuresAreNonFatal(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("broker gone")}
	r := New(pub, "drone-1")

	// Must not panic or propagate.
	r.PublishStatus(engine.Status{MissionID: "m1"})
	r.PublishTelemetry(time.Now(), engine.Snapshot{})
	r.PublishServo(engine.ServoCommand{})
}

func TestNilPublisherIsNoOp(t *testing.T) {
	t.Parallel()

	r := New(nil, "drone-1")
	r.PublishStatus(engine.Status{MissionID: "m1"})
	r.PublishTelemetry(time.Now(), engine.Snapshot{})
	r.PublishServo(engine.ServoCommand{})
}
