package types

// FrameInfo describes what is on the panel.
// These structs are shared between the daemon and client packages.
type FrameInfo struct {
	Builtin bool    `json:"builtin"`
	Path    string  `json:"path,omitempty"`
	Caption string  `json:"caption,omitempty"`
	Index   int     `json:"index,omitempty"`
	Phase   float64 `json:"phase,omitempty"`
	Voltage float64 `json:"voltage"`
	// At is the device time the frame was drawn for.
	At Timestamp `json:"at"`
}

// Status is the state reported by GET /status.
type Status struct {
	Mode       string     `json:"mode"`
	Now        Timestamp  `json:"now"`
	BootTime   Timestamp  `json:"bootTime"`
	BootSource string     `json:"bootSource"`
	Alarm      *Timestamp `json:"alarm,omitempty"`

	Voltage           float64 `json:"voltage"`
	LowPowerThreshold float64 `json:"lowPowerThreshold"`
	ExternalPower     bool    `json:"externalPower"`
	ChargeState       string  `json:"chargeState"`
	CardPresent       bool    `json:"cardPresent"`

	Frame *FrameInfo `json:"frame,omitempty"`
	// LoopIterations counts control loop iterations in the last minute.
	LoopIterations int `json:"loopIterations"`
}

// PhaseInfo is the moon phase at a point in time, as reported by
// GET /phase.
type PhaseInfo struct {
	At       Timestamp `json:"at"`
	Phase    float64   `json:"phase"`
	Age      float64   `json:"age"`
	Index    int       `json:"index"`
	Path     string    `json:"path"`
	Caption  string    `json:"caption"`
	NextFull Timestamp `json:"nextFull"`
	NextNew  Timestamp `json:"nextNew"`
}

// CommandReply is the response of PUT /command.
type CommandReply struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}
