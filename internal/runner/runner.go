package runner

import (
	"context"
	"log"
	"time"

	"github.com/skycourier/missionrunner/internal/engine"
	"github.com/skycourier/missionrunner/internal/mission"
	"github.com/skycourier/missionrunner/internal/telemetry"
	"github.com/skycourier/missionrunner/internal/transport"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	statusInterval      = 2 * time.Second
	telemetryInterval   = time.Second
)

// Config collects everything the runner needs to wire up one engine
// instance.
type Config struct {
	DeviceID string

	Transport transport.Config

	// MissionPath preloads a mission at startup; execution still waits for a
	// start command.
	MissionPath string

	// MissionDir is where start commands resolve mission ids to files.
	MissionDir string

	// Speed overrides the mission's max speed when positive.
	Speed float64

	// DryRun skips the broker entirely; the engine still ticks.
	DryRun bool

	TickInterval time.Duration
}

// Run drives the engine until ctx is cancelled or startup fails. The tick
// loop is the single goroutine that mutates engine state; the transport's
// network goroutine only enqueues messages.
func Run(ctx context.Context, cfg Config) error {
	log.Printf("Starting mission runner (device_id=%s, dry_run=%v)", cfg.DeviceID, cfg.DryRun)

	loader := func(missionID string) (*mission.Mission, error) {
		m, err := mission.Load(mission.Resolve(cfg.MissionDir, missionID))
		if err != nil {
			return nil, err
		}
		if cfg.Speed > 0 {
			m.MaxSpeed = cfg.Speed
		}
		return m, nil
	}

	var reporter *telemetry.Reporter
	eng := engine.New(engine.Config{
		DeviceID:    cfg.DeviceID,
		LoadMission: loader,
		OnStatus:    func(st engine.Status) { reporter.PublishStatus(st) },
		OnRelease:   func(cmd engine.ServoCommand) { reporter.PublishServo(cmd) },
	})

	var pub telemetry.Publisher
	if !cfg.DryRun {
		conn, err := transport.Connect(ctx, cfg.Transport, eng.HandleCommandPayload, eng.HandleObstaclePayload)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub = conn
	}
	reporter = telemetry.New(pub, cfg.DeviceID)

	if cfg.MissionPath != "" {
		m, err := mission.Load(cfg.MissionPath)
		if err != nil {
			log.Printf("Failed to load initial mission: %v", err)
		} else {
			if cfg.Speed > 0 {
				m.MaxSpeed = cfg.Speed
			}
			eng.Preload(m)
		}
	}

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var lastStatus, lastTelemetry time.Time
	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutting down..")
			return nil
		case now := <-ticker.C:
			eng.Step(now)

			if now.Sub(lastStatus) >= statusInterval {
				if st, ok := eng.Status(now); ok {
					reporter.PublishStatus(st)
				}
				lastStatus = now
			}
			if now.Sub(lastTelemetry) >= telemetryInterval {
				reporter.PublishTelemetry(now, eng.Snapshot(now))
				lastTelemetry = now
			}
		}
	}
}
