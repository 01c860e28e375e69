package pins

import (
	"sync"
)

// MockBanks is simulated display bus. It decodes a Word from every
// latching frame on the clock high phase.
type MockBanks struct {
	mu         sync.Mutex
	KeepFrames int
	frames     []Frame
	words      []Word
	last       Frame
	count      uint64
	Err        error
}

var _ BankWriter = &MockBanks{}

func (self *MockBanks) WriteFrame(f Frame) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.Err != nil {
		return self.Err
	}
	self.count++
	self.last = f
	if len(self.frames) < self.KeepFrames {
		self.frames = append(self.frames, f)
	}
	if f.Latch && f.Clock() {
		self.words = append(self.words, Word{IsCommand: f.IsCommand(), Byte: f.Byte()})
	}
	return nil
}

func (self *MockBanks) Words() []Word {
	self.mu.Lock()
	defer self.mu.Unlock()
	ws := make([]Word, len(self.words))
	copy(ws, self.words)
	return ws
}

func (self *MockBanks) Frames() []Frame {
	self.mu.Lock()
	defer self.mu.Unlock()
	fs := make([]Frame, len(self.frames))
	copy(fs, self.frames)
	return fs
}

func (self *MockBanks) Last() Frame {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.last
}

func (self *MockBanks) Count() uint64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.count
}

func (self *MockBanks) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.frames = nil
	self.words = nil
	self.count = 0
}

// MockMatrix simulates keypad matrix: row lines are driven one at a time,
// column lines read high where pressed key meets the driven row.
type MockMatrix struct {
	mu       sync.Mutex
	nrow     int
	ncol     int
	driven   []byte
	pressed  bool
	row, col int
}

func NewMockMatrix(nrow, ncol int) *MockMatrix {
	return &MockMatrix{nrow: nrow, ncol: ncol, driven: make([]byte, nrow)}
}

func (self *MockMatrix) Press(row, col int) {
	self.mu.Lock()
	self.pressed, self.row, self.col = true, row, col
	self.mu.Unlock()
}

func (self *MockMatrix) Release() {
	self.mu.Lock()
	self.pressed = false
	self.mu.Unlock()
}

func (self *MockMatrix) Rows() LineWriter { return mockRows{self} }
func (self *MockMatrix) Cols() LineReader { return mockCols{self} }

type mockRows struct{ m *MockMatrix }
type mockCols struct{ m *MockMatrix }

func (r mockRows) SetLines(values []byte) error {
	r.m.mu.Lock()
	copy(r.m.driven, values)
	r.m.mu.Unlock()
	return nil
}

func (c mockCols) ReadLines() ([]byte, error) {
	m := c.m
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make([]byte, m.ncol)
	if m.pressed && m.row < m.nrow && m.driven[m.row] != 0 && m.col < m.ncol {
		values[m.col] = 1
	}
	return values, nil
}

// MockLevel is single input line, e.g. button.
type MockLevel struct {
	mu sync.Mutex
	v  bool
}

var _ LineReader = &MockLevel{}

func (self *MockLevel) Set(v bool) {
	self.mu.Lock()
	self.v = v
	self.mu.Unlock()
}

func (self *MockLevel) ReadLines() ([]byte, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.v {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}
