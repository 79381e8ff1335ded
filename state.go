package scribe

import (
	"strings"
	"sync"

	"github.com/meetscribe/scribe-go/proto"
)

// Snapshot is a consistent copy of the meeting view at one point in
// time.
type Snapshot struct {
	Transcript  string
	Diagram     string
	ActionItems []string
	Connected   bool
	Recording   bool
}

// MeetingState is the client-side view of the session: the accumulated
// transcript, the last diagram, the last action-item list and the
// connection/recording flags. Every mutation is applied atomically, a
// Snapshot never observes a half-applied update.
type MeetingState struct {
	mu         sync.Mutex
	transcript strings.Builder
	diagram    string
	items      []string
	connected  bool
	recording  bool
}

func NewMeetingState() *MeetingState {
	return &MeetingState{}
}

// Apply folds one inbound message into the state and reports whether
// anything changed. Messages with a type other than "update" or with
// no data are ignored. A present transcript fragment is appended,
// never replacing prior content; diagram and action items replace the
// previous value wholesale; absent fields leave their part of the
// state untouched.
func (m *MeetingState) Apply(u *proto.Update) bool {
	if u == nil || u.Type != proto.TypeUpdate || u.Data == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false

	if u.Data.Transcript != "" {
		m.transcript.WriteString(u.Data.Transcript)
		changed = true
	}

	if u.Data.Diagram != "" {
		m.diagram = u.Data.Diagram
		changed = true
	}

	if u.Data.ActionItems != nil {
		m.items = append([]string(nil), u.Data.ActionItems...)
		changed = true
	}

	return changed
}

func (m *MeetingState) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *MeetingState) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MeetingState) SetRecording(recording bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recording = recording
}

func (m *MeetingState) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

func (m *MeetingState) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Transcript:  m.transcript.String(),
		Diagram:     m.diagram,
		ActionItems: append([]string(nil), m.items...),
		Connected:   m.connected,
		Recording:   m.recording,
	}
}
