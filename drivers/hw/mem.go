package hw

import "sync"

// Mem is an in-memory Driver for tests and the daemon's simulation mode.
// Pin levels are settable, per-pin read errors injectable, and duty writes
// are recorded per channel.
type Mem struct {
	mu     sync.Mutex
	pins   map[int]bool
	pinErr map[int]error
	writes map[int][]uint16
	down   bool
}

func NewMem() *Mem {
	return &Mem{
		pins:   map[int]bool{},
		pinErr: map[int]error{},
		writes: map[int][]uint16{},
	}
}

// SetPin sets the level returned by subsequent reads of pin.
func (m *Mem) SetPin(pin int, level bool) {
	m.mu.Lock()
	m.pins[pin] = level
	m.mu.Unlock()
}

// FailPin makes reads of pin return err (nil clears the fault).
func (m *Mem) FailPin(pin int, err error) {
	m.mu.Lock()
	if err == nil {
		delete(m.pinErr, pin)
	} else {
		m.pinErr[pin] = err
	}
	m.mu.Unlock()
}

// SetDown simulates the whole subsystem going away.
func (m *Mem) SetDown(down bool) {
	m.mu.Lock()
	m.down = down
	m.mu.Unlock()
}

func (m *Mem) ReadPin(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, ErrUnavailable
	}
	if err := m.pinErr[pin]; err != nil {
		return false, err
	}
	return m.pins[pin], nil
}

func (m *Mem) WriteDuty(channel int, duty uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return ErrUnavailable
	}
	m.writes[channel] = append(m.writes[channel], duty)
	return nil
}

// Writes returns a copy of the duty values written to channel, in order.
func (m *Mem) Writes(channel int) []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint16, len(m.writes[channel]))
	copy(out, m.writes[channel])
	return out
}

// LastDuty returns the most recent duty written to channel, or 0.
func (m *Mem) LastDuty(channel int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.writes[channel]
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1]
}

var _ Driver = (*Mem)(nil)
