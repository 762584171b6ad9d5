package events

import "encoding/json"

// Event names published by the daemon.
const (
	DisplayRefresh = "display.refresh"
	ClockSet       = "clock.set"
	ChargeState    = "charge.state"
	CommandResult  = "command.result"
	AlarmFired     = "alarm.fired"
	KeyPressed     = "key.pressed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// DisplayRefreshEvent is the payload of display.refresh.
type DisplayRefreshEvent struct {
	Builtin bool    `json:"builtin"`
	Path    string  `json:"path,omitempty"`
	Caption string  `json:"caption,omitempty"`
	Phase   float64 `json:"phase,omitempty"`
	Voltage float64 `json:"voltage"`
	Ts      int64   `json:"ts"`
}

// ClockSetEvent is the payload of clock.set.
type ClockSetEvent struct {
	Time   string `json:"time"`
	Alarm  string `json:"alarm"`
	Source string `json:"source"`
	Ts     int64  `json:"ts"`
}

// ChargeStateEvent is the payload of charge.state.
type ChargeStateEvent struct {
	State         string `json:"state"`
	ExternalPower bool   `json:"externalPower"`
	Ts            int64  `json:"ts"`
}

// CommandResultEvent is the payload of command.result.
type CommandResultEvent struct {
	Line    string `json:"line"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	OK      bool   `json:"ok"`
	Ts      int64  `json:"ts"`
}

// AlarmFiredEvent is the payload of alarm.fired and key.pressed.
type AlarmFiredEvent struct {
	At string `json:"at"`
	Ts int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.ClockSetEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Time, payload.Alarm)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
