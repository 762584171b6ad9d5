package rtc

import (
	"sync"

	"github.com/charlie0129/moonframe/pkg/types"
)

var _ Clock = &Mock{}

// Mock is an in-memory Clock. Time only moves when SetTime is called.
type Mock struct {
	mu *sync.Mutex

	Now       types.Timestamp
	Stable    bool
	Valid     bool
	AlarmAt   *types.Timestamp
	AlarmFlag bool

	// Calls records the mutating calls in order.
	Calls []string
	// Err, when set, is returned by every call.
	Err error
}

// NewMock returns a Mock prefilled with now.
func NewMock(now types.Timestamp, stable, valid bool) *Mock {
	return &Mock{
		mu:     &sync.Mutex{},
		Now:    now,
		Stable: stable,
		Valid:  valid,
	}
}

func (m *Mock) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *Mock) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Init")
	if m.Err != nil {
		return m.Err
	}
	m.Stable = true
	m.Valid = false
	return nil
}

func (m *Mock) GetTime() (types.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Now, m.Err
}

func (m *Mock) SetTime(ts types.Timestamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetTime " + ts.String())
	if m.Err != nil {
		return m.Err
	}
	m.Now = ts
	m.Valid = true
	return nil
}

func (m *Mock) IsStable() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stable, m.Err
}

func (m *Mock) HasValidTime() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Valid, m.Err
}

func (m *Mock) ClearAlarmFlag() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ClearAlarmFlag")
	if m.Err != nil {
		return m.Err
	}
	m.AlarmFlag = false
	return nil
}

func (m *Mock) SetAlarm(ts types.Timestamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetAlarm " + ts.String())
	if m.Err != nil {
		return m.Err
	}
	m.AlarmAt = &ts
	return nil
}

func (m *Mock) DisableAlarm() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DisableAlarm")
	if m.Err != nil {
		return m.Err
	}
	m.AlarmAt = nil
	return nil
}

func (m *Mock) Alarm() (types.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Timestamp{}, m.Err
	}
	if m.AlarmAt == nil {
		return types.Timestamp{}, ErrNoAlarm
	}
	return *m.AlarmAt, nil
}
