package scribe

import (
	"testing"

	"github.com/meetscribe/scribe-go/proto"
	"github.com/stretchr/testify/require"
)

func upd(data *proto.UpdateData) *proto.Update {
	return &proto.Update{Type: proto.TypeUpdate, Data: data}
}

func TestTranscriptAppends(t *testing.T) {
	m := NewMeetingState()

	fragments := []string{"Good", " morning", " everyone", ", let's start"}
	for _, f := range fragments {
		require.True(t, m.Apply(upd(&proto.UpdateData{Transcript: f})))
	}

	require.Equal(t, "Good morning everyone, let's start", m.Snapshot().Transcript)
}

func TestDiagramAndActionItemsReplace(t *testing.T) {
	m := NewMeetingState()

	m.Apply(upd(&proto.UpdateData{Diagram: "graph TD; A-->B"}))
	m.Apply(upd(&proto.UpdateData{ActionItems: proto.ActionItems{"ship it"}}))

	m.Apply(upd(&proto.UpdateData{
		Diagram:     "graph TD; A-->C",
		ActionItems: proto.ActionItems{"review", "deploy"},
	}))

	s := m.Snapshot()
	require.Equal(t, "graph TD; A-->C", s.Diagram)
	require.Equal(t, []string{"review", "deploy"}, s.ActionItems)
}

func TestAbsentFieldsLeaveStateUntouched(t *testing.T) {
	m := NewMeetingState()

	m.Apply(upd(&proto.UpdateData{
		Transcript:  "hello",
		Diagram:     "graph",
		ActionItems: proto.ActionItems{"a"},
	}))

	// a transcript-only update must not clear diagram or items
	require.True(t, m.Apply(upd(&proto.UpdateData{Transcript: " world"})))

	s := m.Snapshot()
	require.Equal(t, "hello world", s.Transcript)
	require.Equal(t, "graph", s.Diagram)
	require.Equal(t, []string{"a"}, s.ActionItems)
}

func TestApplyIgnoresForeignMessages(t *testing.T) {
	m := NewMeetingState()

	require.False(t, m.Apply(nil))
	require.False(t, m.Apply(&proto.Update{Type: "error", Data: &proto.UpdateData{Transcript: "x"}}))
	require.False(t, m.Apply(&proto.Update{Type: proto.TypeUpdate}))
	require.False(t, m.Apply(upd(&proto.UpdateData{})))

	require.Equal(t, "", m.Snapshot().Transcript)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewMeetingState()
	m.Apply(upd(&proto.UpdateData{ActionItems: proto.ActionItems{"a", "b"}}))

	s := m.Snapshot()
	s.ActionItems[0] = "mutated"

	require.Equal(t, []string{"a", "b"}, m.Snapshot().ActionItems)
}
