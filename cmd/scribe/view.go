package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	scribe "github.com/meetscribe/scribe-go"
	"github.com/meetscribe/scribe-go/proto"
)

// view renders the meeting as it evolves: transcript fragments stream
// inline, diagram and action items are redrawn when they change.
type view struct {
	mu    sync.Mutex
	out   io.Writer
	state *scribe.MeetingState
}

func newView(out io.Writer, state *scribe.MeetingState) *view {
	return &view{out: out, state: state}
}

func (v *view) notice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "\n*** %s\n", msg)
}

func (v *view) onUpdate(u *proto.Update) {
	if u.Type != proto.TypeUpdate || u.Data == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if u.Data.Transcript != "" {
		fmt.Fprint(v.out, u.Data.Transcript)
	}

	if u.Data.Diagram != "" {
		fmt.Fprintf(v.out, "\n--- diagram ---\n%s\n---------------\n", u.Data.Diagram)
	}

	if u.Data.ActionItems != nil {
		fmt.Fprintf(v.out, "\n--- action items ---\n")
		for _, item := range u.Data.ActionItems {
			fmt.Fprintf(v.out, "  - %s\n", item)
		}
		fmt.Fprintf(v.out, "--------------------\n")
	}
}

func (v *view) summary() {
	s := v.state.Snapshot()

	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.out, "\n\n=== meeting summary ===\n")
	fmt.Fprintf(v.out, "transcript (%d chars):\n%s\n", len(s.Transcript), strings.TrimSpace(s.Transcript))
	if s.Diagram != "" {
		fmt.Fprintf(v.out, "\ndiagram:\n%s\n", s.Diagram)
	}
	if len(s.ActionItems) > 0 {
		fmt.Fprintf(v.out, "\naction items:\n")
		for _, item := range s.ActionItems {
			fmt.Fprintf(v.out, "  - %s\n", item)
		}
	}
}
