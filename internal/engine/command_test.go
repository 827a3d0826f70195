package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	t.Parallel()

	t.Run("start carries the mission id", func(t *testing.T) {
		t.Parallel()
		cmd, err := DecodeCommand([]byte(`{"type": "start", "mission_id": "m1"}`))
		require.NoError(t, err)
		assert.Equal(t, StartCommand{MissionID: "m1"}, cmd)
	})

	t.Run("simple commands", func(t *testing.T) {
		t.Parallel()
		cases := map[string]Command{
			`{"type": "pause"}`:  PauseCommand{},
			`{"type": "resume"}`: ResumeCommand{},
			`{"type": "abort"}`:  AbortCommand{},
		}
		for payload, want := range cases {
			cmd, err := DecodeCommand([]byte(payload))
			require.NoError(t, err)
			assert.Equal(t, want, cmd)
		}
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"type": "hover"}`))
		assert.Error(t, err)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{`))
		assert.Error(t, err)
	})
}

func TestDecodeObstacle(t *testing.T) {
	t.Parallel()

	t.Run("full event", func(t *testing.T) {
		t.Parallel()
		ev, err := DecodeObstacle([]byte(`{"type": "bird", "confidence": 0.9, "lat": 1.5, "lon": 2.5, "alt": 30}`))
		require.NoError(t, err)
		assert.Equal(t, "bird", ev.Type)
		assert.Equal(t, 0.9, ev.Confidence)
		require.NotNil(t, ev.Lat)
		assert.Equal(t, 1.5, *ev.Lat)
		require.NotNil(t, ev.Alt)
		assert.Equal(t, 30.0, *ev.Alt)
	})

	t.Run("coordinates are optional", func(t *testing.T) {
		t.Parallel()
		ev, err := DecodeObstacle([]byte(`{"type": "unknown", "confidence": 0.4}`))
		require.NoError(t, err)
		assert.Nil(t, ev.Lat)
		assert.Nil(t, ev.Lon)
		assert.Nil(t, ev.Alt)
	})
}
