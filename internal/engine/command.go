package engine

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Command is a closed set of external control commands. The unexported
// method keeps the set closed so apply can match exhaustively.
type Command interface {
	commandType() string
}

type StartCommand struct {
	MissionID string
}

type PauseCommand struct{}

type ResumeCommand struct{}

type AbortCommand struct{}

func (StartCommand) commandType() string  { return "start" }
func (PauseCommand) commandType() string  { return "pause" }
func (ResumeCommand) commandType() string { return "resume" }
func (AbortCommand) commandType() string  { return "abort" }

// DecodeCommand parses a mission/command payload into its typed variant.
func DecodeCommand(payload []byte) (Command, error) {
	var raw struct {
		Type      string `json:"type"`
		MissionID string `json:"mission_id"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "malformed command payload")
	}

	switch raw.Type {
	case "start":
		return StartCommand{MissionID: raw.MissionID}, nil
	case "pause":
		return PauseCommand{}, nil
	case "resume":
		return ResumeCommand{}, nil
	case "abort":
		return AbortCommand{}, nil
	default:
		return nil, errors.Errorf("unknown command type %q", raw.Type)
	}
}
