package mission

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadError reports a mission descriptor that could not be read or parsed.
// A load failure is fatal for the start attempt, not for the process.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load mission %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// descriptor is the on-disk mission format. Optional fields are pointers so
// missing values can fall back to mission or system defaults.
type descriptor struct {
	MissionID       string                 `json:"mission_id" yaml:"mission_id"`
	Name            string                 `json:"name" yaml:"name"`
	DefaultAltitude *float64               `json:"default_altitude" yaml:"default_altitude"`
	MaxSpeed        *float64               `json:"max_speed" yaml:"max_speed"`
	PayloadMetadata map[string]interface{} `json:"payload_metadata" yaml:"payload_metadata"`
	Waypoints       []waypointDescriptor   `json:"waypoints" yaml:"waypoints"`
}

type waypointDescriptor struct {
	Lat         *float64               `json:"lat" yaml:"lat"`
	Lon         *float64               `json:"lon" yaml:"lon"`
	Alt         *float64               `json:"alt" yaml:"alt"`
	HoldSeconds *float64               `json:"hold_seconds" yaml:"hold_seconds"`
	Action      string                 `json:"action" yaml:"action"`
	Metadata    map[string]interface{} `json:"metadata" yaml:"metadata"`
}

// Load reads and validates a mission descriptor file. JSON is the canonical
// format; files ending in .yaml or .yml are decoded as YAML.
func Load(path string) (*Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	var desc descriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &desc)
	default:
		err = json.Unmarshal(data, &desc)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Err: errors.Wrap(err, "malformed descriptor")}
	}

	m, err := build(desc)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	log.Printf("Loaded mission: %s (%d waypoints)", m.Name, len(m.Waypoints))
	return m, nil
}

func build(desc descriptor) (*Mission, error) {
	if desc.MissionID == "" {
		return nil, errors.New("missing mission_id")
	}
	if len(desc.Waypoints) == 0 {
		return nil, errors.New("mission has no waypoints")
	}

	m := &Mission{
		ID:              desc.MissionID,
		Name:            desc.Name,
		PayloadMetadata: desc.PayloadMetadata,
		MaxSpeed:        DefaultSpeed,
		DefaultAltitude: DefaultAltitude,
	}
	if m.Name == "" {
		m.Name = "Unnamed Mission"
	}
	if m.PayloadMetadata == nil {
		m.PayloadMetadata = map[string]interface{}{}
	}
	if desc.DefaultAltitude != nil {
		m.DefaultAltitude = *desc.DefaultAltitude
	}
	if desc.MaxSpeed != nil {
		if *desc.MaxSpeed <= 0 {
			return nil, errors.Errorf("max_speed must be positive, got %v", *desc.MaxSpeed)
		}
		m.MaxSpeed = *desc.MaxSpeed
	}

	for i, wd := range desc.Waypoints {
		if wd.Lat == nil || wd.Lon == nil {
			return nil, errors.Errorf("waypoint %d: missing lat or lon", i)
		}
		wp := Waypoint{
			Lat:      *wd.Lat,
			Lon:      *wd.Lon,
			Alt:      m.DefaultAltitude,
			Action:   wd.Action,
			Metadata: wd.Metadata,
		}
		if wd.Alt != nil {
			wp.Alt = *wd.Alt
		}
		if wd.HoldSeconds != nil {
			if *wd.HoldSeconds < 0 {
				return nil, errors.Errorf("waypoint %d: negative hold_seconds", i)
			}
			wp.HoldSeconds = *wd.HoldSeconds
		}
		if wp.Action == "" {
			wp.Action = "none"
		}
		if wp.Metadata == nil {
			wp.Metadata = map[string]interface{}{}
		}
		m.Waypoints = append(m.Waypoints, wp)
	}

	return m, nil
}

// Resolve maps a mission id to a descriptor file under dir, falling back to
// the bundled sample mission when no file matches the id.
func Resolve(dir, missionID string) string {
	candidates := []string{
		filepath.Join(dir, missionID+".json"),
		filepath.Join(dir, missionID+".yaml"),
		filepath.Join(dir, missionID+".yml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, "sample_mission.json")
}
