package engine

import (
	"log"
	"strings"
	"time"

	"github.com/skycourier/missionrunner/internal/kinematics"
	"github.com/skycourier/missionrunner/internal/mission"
)

// A waypoint counts as reached within this distance in meters.
const arrivalThreshold = 1.0

const inboundQueueSize = 16

// Loader resolves a mission id to a loaded mission definition.
type Loader func(missionID string) (*mission.Mission, error)

// Config wires an Engine to its collaborators. OnStatus and OnRelease may be
// nil (dry run).
type Config struct {
	DeviceID    string
	LoadMission Loader

	// OnStatus is invoked whenever a command changes the mission state, in
	// addition to the periodic cadence driven by the runner.
	OnStatus func(Status)

	// OnRelease is invoked when a deliver action fires.
	OnRelease func(ServoCommand)
}

// Engine owns all mutable mission state and drives every transition. All
// mutation happens on the goroutine calling Step; transport callbacks only
// enqueue decoded messages onto the inbound channels.
type Engine struct {
	deviceID    string
	loadMission Loader
	onStatus    func(Status)
	onRelease   func(ServoCommand)

	commands  chan Command
	obstacles chan ObstacleEvent

	mission       *mission.Mission
	state         State
	lastState     State
	waypointIndex int

	// Timing anchors for interpolation and hold expiry.
	missionStart time.Time
	legStart     time.Time
	holdStart    time.Time

	current kinematics.Position
	target  kinematics.Position
	speed   float64

	obstacleDetected bool
	obstaclePosition kinematics.Position

	errorMessage string
}

func New(cfg Config) *Engine {
	e := &Engine{
		deviceID:    cfg.DeviceID,
		loadMission: cfg.LoadMission,
		onStatus:    cfg.OnStatus,
		onRelease:   cfg.OnRelease,
		commands:    make(chan Command, inboundQueueSize),
		obstacles:   make(chan ObstacleEvent, inboundQueueSize),
		state:       StateIdle,
		lastState:   StateIdle,
		speed:       mission.DefaultSpeed,
	}
	return e
}

// HandleCommandPayload decodes and enqueues a mission/command payload. Safe
// to call from the transport's network goroutine.
func (e *Engine) HandleCommandPayload(payload []byte) {
	cmd, err := DecodeCommand(payload)
	if err != nil {
		log.Printf("Dropping command: %v", err)
		return
	}
	e.SubmitCommand(cmd)
}

// HandleObstaclePayload decodes and enqueues an obstacles payload. Safe to
// call from the transport's network goroutine.
func (e *Engine) HandleObstaclePayload(payload []byte) {
	ev, err := DecodeObstacle(payload)
	if err != nil {
		log.Printf("Dropping obstacle event: %v", err)
		return
	}
	e.SubmitObstacle(ev)
}

// SubmitCommand enqueues a command for the next Step. Commands arriving
// faster than the tick loop drains them are dropped with a warning.
func (e *Engine) SubmitCommand(cmd Command) {
	select {
	case e.commands <- cmd:
	default:
		log.Printf("WARNING: command queue full, dropping %s", cmd.commandType())
	}
}

// SubmitObstacle enqueues an obstacle event for the next Step.
func (e *Engine) SubmitObstacle(ev ObstacleEvent) {
	select {
	case e.obstacles <- ev:
	default:
		log.Printf("WARNING: obstacle queue full, dropping event")
	}
}

// Preload installs a mission without starting it. A start command is still
// required to begin execution.
func (e *Engine) Preload(m *mission.Mission) {
	e.mission = m
	e.speed = m.MaxSpeed
}

// HasMission reports whether a mission is loaded (started or not).
func (e *Engine) HasMission() bool { return e.mission != nil }

// Step runs one tick: drain inbound messages, then advance the state
// machine. Must always be called from the same goroutine.
func (e *Engine) Step(now time.Time) {
	e.drain(now)

	if e.mission != nil && e.state != StateIdle {
		e.updatePosition(now)
	}

	if e.lastState != e.state {
		log.Printf("State changed: %s -> %s", e.lastState, e.state)
		e.lastState = e.state
	}
}

func (e *Engine) drain(now time.Time) {
	for {
		select {
		case cmd := <-e.commands:
			e.apply(cmd, now)
		case ev := <-e.obstacles:
			e.reactToObstacle(ev, now)
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd Command, now time.Time) {
	switch c := cmd.(type) {
	case StartCommand:
		e.start(c, now)
	case PauseCommand:
		if e.state != StateEnroute && e.state != StateHold {
			log.Printf("Invalid command pause for state %s", e.state)
			return
		}
		e.pause(now)
	case ResumeCommand:
		e.resume(now)
	case AbortCommand:
		e.abort(now)
	}
}

func (e *Engine) start(cmd StartCommand, now time.Time) {
	if e.state != StateIdle {
		log.Printf("Invalid command start for state %s", e.state)
		return
	}

	if cmd.MissionID != "" {
		m, err := e.loadMission(cmd.MissionID)
		if err != nil {
			log.Printf("Failed to start mission %s: %v", cmd.MissionID, err)
			e.state = StateError
			e.errorMessage = err.Error()
			e.publishStatus(now)
			return
		}
		e.mission = m
	}
	if e.mission == nil {
		log.Printf("Start command without mission_id and no preloaded mission")
		return
	}

	e.state = StateTakeoff
	e.waypointIndex = 0
	e.missionStart = now
	e.speed = e.mission.MaxSpeed
	e.errorMessage = ""

	// Start on the ground under the first waypoint.
	first := e.mission.Waypoints[0]
	e.current = kinematics.Position{Lat: first.Lat, Lon: first.Lon, Alt: 0}
	e.target = kinematics.Position{Lat: first.Lat, Lon: first.Lon, Alt: first.Alt}

	log.Printf("Starting mission: %s", e.mission.Name)
	e.publishStatus(now)
}

func (e *Engine) pause(now time.Time) {
	e.state = StatePaused
	log.Printf("Mission paused")
	e.publishStatus(now)
}

func (e *Engine) resume(now time.Time) {
	if e.state != StatePaused {
		log.Printf("Invalid command resume for state %s", e.state)
		return
	}

	e.obstacleDetected = false
	e.obstaclePosition = kinematics.Position{}

	if e.waypointIndex < len(e.mission.Waypoints) {
		if e.mission.Waypoints[e.waypointIndex].HoldSeconds > 0 {
			e.state = StateHold
		} else {
			e.state = StateEnroute
		}
	} else {
		e.state = StateReturn
	}

	log.Printf("Mission resumed")
	e.publishStatus(now)
}

func (e *Engine) abort(now time.Time) {
	e.state = StateError
	e.errorMessage = "Mission aborted by command"
	log.Printf("Mission aborted")
	e.publishStatus(now)
}

func (e *Engine) reactToObstacle(ev ObstacleEvent, now time.Time) {
	if e.state != StateEnroute && e.state != StateHold {
		return
	}
	if ev.Confidence <= obstacleConfidenceThreshold {
		return
	}

	log.Printf("Obstacle detected: %s (confidence: %.2f)", ev.Type, ev.Confidence)
	e.obstacleDetected = true
	e.obstaclePosition = e.current
	if ev.Lat != nil {
		e.obstaclePosition.Lat = *ev.Lat
	}
	if ev.Lon != nil {
		e.obstaclePosition.Lon = *ev.Lon
	}
	if ev.Alt != nil {
		e.obstaclePosition.Alt = *ev.Alt
	}

	e.pause(now)
}

// updatePosition advances the state machine one tick while a mission is
// active. Movement is simulated by interpolating along the current leg at
// the mission speed.
func (e *Engine) updatePosition(now time.Time) {
	wps := e.mission.Waypoints

	switch e.state {
	case StateTakeoff:
		wp := wps[e.waypointIndex]
		e.target = kinematics.Position{Lat: wp.Lat, Lon: wp.Lon, Alt: wp.Alt}
		d := kinematics.Distance(e.current, e.target)
		if d < arrivalThreshold {
			e.state = StateEnroute
			e.legStart = now
			return
		}
		elapsed := now.Sub(e.missionStart).Seconds()
		ground := kinematics.Position{Lat: e.current.Lat, Lon: e.current.Lon, Alt: 0}
		e.current = kinematics.Interpolate(ground, e.target, legProgress(elapsed, d, e.speed))

	case StateEnroute:
		wp := wps[e.waypointIndex]
		e.target = kinematics.Position{Lat: wp.Lat, Lon: wp.Lon, Alt: wp.Alt}
		d := kinematics.Distance(e.current, e.target)
		if d < arrivalThreshold {
			e.current = e.target
			if wp.HoldSeconds > 0 {
				e.state = StateHold
				e.holdStart = now
			} else {
				e.advance(now)
			}
			return
		}
		elapsed := now.Sub(e.legStart).Seconds()
		e.current = kinematics.Interpolate(e.current, e.target, legProgress(elapsed, d, e.speed))

	case StateHold:
		wp := wps[e.waypointIndex]
		if now.Sub(e.holdStart).Seconds() >= wp.HoldSeconds {
			e.advance(now)
		}

	case StateDelivery:
		// No transition currently targets this state; waypoint arrival goes
		// straight to advance. The handler is kept so the action model stays
		// complete. See DESIGN.md.
		e.executeAction(wps[e.waypointIndex], now)
		e.advance(now)

	case StateReturn:
		home := kinematics.Position{Lat: wps[0].Lat, Lon: wps[0].Lon, Alt: 0}
		e.target = home
		d := kinematics.Distance(e.current, home)
		if d < arrivalThreshold {
			e.state = StateLanded
			log.Printf("Mission complete, landed")
			return
		}
		elapsed := now.Sub(e.legStart).Seconds()
		e.current = kinematics.Interpolate(e.current, home, legProgress(elapsed, d, e.speed))
	}
}

// advance moves to the next waypoint, or to the return leg past the last one.
func (e *Engine) advance(now time.Time) {
	e.waypointIndex++
	if e.waypointIndex >= len(e.mission.Waypoints) {
		e.state = StateReturn
	} else {
		e.state = StateEnroute
	}
	e.legStart = now
}

func (e *Engine) executeAction(wp mission.Waypoint, now time.Time) {
	switch strings.ToLower(wp.Action) {
	case "deliver":
		cmd := ServoCommand{
			DeviceID:        e.deviceID,
			Timestamp:       unixSeconds(now),
			Command:         "release",
			Waypoint:        e.waypointIndex,
			PayloadMetadata: e.mission.PayloadMetadata,
		}
		if e.onRelease != nil {
			e.onRelease(cmd)
		}
		log.Printf("Payload delivery executed at waypoint %d", e.waypointIndex)
	case "photo":
		log.Printf("Photo captured at waypoint %d (lat=%.6f lon=%.6f alt=%.1f)",
			e.waypointIndex, e.current.Lat, e.current.Lon, e.current.Alt)
	}
}

func (e *Engine) publishStatus(now time.Time) {
	if e.onStatus == nil {
		return
	}
	if st, ok := e.Status(now); ok {
		e.onStatus(st)
	}
}

// legProgress converts elapsed leg time into an interpolation fraction for
// the remaining distance at the given speed.
func legProgress(elapsed, distance, speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return elapsed / (distance / speed)
}
