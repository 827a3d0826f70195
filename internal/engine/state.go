package engine

// State is the vehicle's mission execution state. Exactly one value is held
// at any instant and only the engine's tick goroutine mutates it.
type State string

const (
	StateIdle     State = "IDLE"
	StateTakeoff  State = "TAKEOFF"
	StateEnroute  State = "ENROUTE"
	StateHold     State = "HOLD"
	StateDelivery State = "DELIVERY"
	StateReturn   State = "RETURN"
	StateLanded   State = "LANDED"
	StateError    State = "ERROR"
	StatePaused   State = "PAUSED"
)
