package heatmiser

import (
	"context"
	"errors"
	"sync"
)

var errTest = errors.New("test failure")

// fakeStat is an in-memory Thermostat for tests.
type fakeStat struct {
	mu sync.Mutex

	air     float64
	floor   float64
	target  int
	frost   bool
	heating bool
	hwOn    bool

	readErr  error
	writeErr error
	hwErr    error

	readCalls    int
	targetWrites []int
	frostWrites  []bool
	hwWrites     []bool
}

func (s *fakeStat) ReadDCB() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCalls++
	return s.readErr
}

func (s *fakeStat) AirTemp() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.air
}

func (s *fakeStat) FloorTemp() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floor
}

func (s *fakeStat) TargetTemp() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *fakeStat) FrostActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frost
}

func (s *fakeStat) HeatingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heating
}

func (s *fakeStat) HotWaterOn() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hwOn, s.hwErr
}

func (s *fakeStat) SetTargetTemp(target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.targetWrites = append(s.targetWrites, target)
	s.target = target
	return nil
}

func (s *fakeStat) SetFrostMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.frostWrites = append(s.frostWrites, enabled)
	s.frost = enabled
	return nil
}

func (s *fakeStat) SetHotWater(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.hwWrites = append(s.hwWrites, on)
	s.hwOn = on
	return nil
}

func (s *fakeStat) snapshotTargetWrites() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.targetWrites))
	copy(out, s.targetWrites)
	return out
}

// fakeMessage is a captured publish.
type fakeMessage struct {
	topic    string
	payload  string
	retained bool
}

// fakeMQTT is an in-memory MQTTClient for tests.
type fakeMQTT struct {
	mu sync.Mutex

	messages   []fakeMessage
	handlers   map[string]func(topic string, payload []byte) error
	publishErr error
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: make(map[string]func(string, []byte) error)}
}

func (m *fakeMQTT) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.messages = append(m.messages, fakeMessage{topic: topic, payload: string(payload), retained: retained})
	return nil
}

func (m *fakeMQTT) Subscribe(topic string, _ byte, handler func(topic string, payload []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *fakeMQTT) IsConnected() bool { return true }

// lastPayload returns the most recent payload published to topic.
func (m *fakeMQTT) lastPayload(topic string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].topic == topic {
			return m.messages[i].payload, true
		}
	}
	return "", false
}

func (m *fakeMQTT) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// fakeTransport is an in-memory Transport for arbiter tests.
type fakeTransport struct {
	mu          sync.Mutex
	open        bool
	reopenErr   error
	closeCalls  int
	reopenCalls int
}

func (t *fakeTransport) Reopen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reopenCalls++
	if t.reopenErr != nil {
		return t.reopenErr
	}
	t.open = true
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCalls++
	t.open = false
	return nil
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// fakeRecorder captures history writes.
type fakeRecorder struct {
	mu       sync.Mutex
	zones    []string
	states   []ZoneState
	hwStates []string
	err      error
}

func (r *fakeRecorder) RecordZoneState(_ context.Context, zone string, state ZoneState, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.zones = append(r.zones, zone)
	r.states = append(r.states, state)
	return nil
}

func (r *fakeRecorder) RecordHotWater(_ context.Context, state string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.hwStates = append(r.hwStates, state)
	return nil
}
