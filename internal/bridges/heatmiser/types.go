package heatmiser

// Priority orders tasks in the work queue. Lower values run first.
type Priority int

// Task priorities. Commands always overtake queued polls.
const (
	// PriorityCommand is for user-initiated writes (setpoint, mode,
	// hot water).
	PriorityCommand Priority = 0

	// PriorityPoll is for background state refreshes.
	PriorityPoll Priority = 1
)

// Operation is a unit of bus work executed by the worker under the
// transport arbiter's lock. It returns an operation-specific result
// (nil for writes, PollResults for polls).
type Operation func() (any, error)

// Task is a queued unit of work.
//
// The callback, if set, runs on the worker goroutine after the
// operation succeeds. Callback panics and errors are contained: they
// are logged and never affect the worker or other tasks. All values a
// callback needs must be captured at enqueue time.
type Task struct {
	priority Priority
	seq      uint64 // assigned by the scheduler; FIFO within a priority
	desc     string
	isPoll   bool
	op       Operation
	callback func(result any) error
}

// RunMode is the climate mode exposed over MQTT.
type RunMode string

// Climate modes. A thermostat in frost protection is "off"; any other
// run mode is "heat".
const (
	ModeHeat RunMode = "heat"
	ModeOff  RunMode = "off"
)

// Action is the current activity exposed over MQTT.
type Action string

// Climate actions, derived from the heating output.
const (
	ActionHeating Action = "heating"
	ActionIdle    Action = "idle"
)

// Hot water states as published and accepted over MQTT.
const (
	HotWaterOn  = "ON"
	HotWaterOff = "OFF"
)

// ZoneState is a zone's externally visible climate state.
type ZoneState struct {
	// Temperature is the current reading in °C from the zone's
	// configured sensor (air by default, floor if configured).
	Temperature float64

	// Target is the setpoint in whole °C.
	Target int

	// Mode is "off" when the thermostat is in frost protection,
	// otherwise "heat".
	Mode RunMode

	// Action is "heating" while the output is active, otherwise "idle".
	Action Action
}

// PollResults carries the outcome of one full poll cycle.
type PollResults struct {
	// Zones maps zone name to the state read during this cycle.
	Zones map[string]ZoneState

	// HotWater is "ON" or "OFF" when a hot water zone is configured,
	// empty otherwise.
	HotWater string
}

// Overrides are values a command just wrote, applied over cached state
// in the immediate optimistic publish. Fields are captured by value at
// enqueue time so later queue churn cannot change what gets published.
type Overrides struct {
	Target *int
	Mode   *RunMode
}

// Thermostat is the per-zone driver surface the bridge needs.
// Implemented by *uh1.Thermostat.
type Thermostat interface {
	// ReadDCB refreshes the cached state from the bus.
	ReadDCB() error

	// Cached readings; these do not touch the bus.
	AirTemp() float64
	FloorTemp() float64
	TargetTemp() int
	FrostActive() bool
	HeatingActive() bool
	HotWaterOn() (bool, error)

	// Writes; these touch the bus.
	SetTargetTemp(target int) error
	SetFrostMode(enabled bool) error
	SetHotWater(on bool) error
}

// Transport is the connection surface the arbiter needs to recover a
// failed link. Implemented by *uh1.Conn.
type Transport interface {
	Reopen() error
	Close() error
	IsOpen() bool
}

// MQTTClient is the broker surface the bridge needs.
// Satisfied by an adapter over *mqtt.Client (see cmd/heatbridge).
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger is the minimal structured logging surface used throughout the
// package. Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Zone binds a configured zone to its thermostat driver.
type Zone struct {
	// Name is the zone's MQTT name (topic segment).
	Name string

	// ID is the thermostat's bus address (1-32).
	ID int

	// FloorSensor selects the floor probe as the reported temperature
	// source instead of the air sensor.
	FloorSensor bool

	// Stat is the thermostat driver.
	Stat Thermostat
}

// State derives the zone's externally visible state from the driver's
// cached readings.
//
// Derivation rules:
//   - temperature: floor sensor if configured, air otherwise
//   - mode: "off" iff frost protection is active, else "heat"
//   - action: "heating" iff the output is active, else "idle"
func (z *Zone) State() ZoneState {
	temp := z.Stat.AirTemp()
	if z.FloorSensor {
		temp = z.Stat.FloorTemp()
	}

	mode := ModeHeat
	if z.Stat.FrostActive() {
		mode = ModeOff
	}

	action := ActionIdle
	if z.Stat.HeatingActive() {
		action = ActionHeating
	}

	return ZoneState{
		Temperature: temp,
		Target:      z.Stat.TargetTemp(),
		Mode:        mode,
		Action:      action,
	}
}
