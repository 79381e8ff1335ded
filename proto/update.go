package proto

import (
	"encoding/json"
	"fmt"
)

// TypeUpdate is the only message type the client acts on. Messages with
// any other type are delivered but ignored by the reducer.
const TypeUpdate = "update"

// Update is an inbound server message: a tagged record carrying zero or
// more partial updates to the meeting view.
type Update struct {
	Type string      `json:"type"`
	Data *UpdateData `json:"data,omitempty"`
}

// UpdateData carries the optional update fields. Transcript fragments
// are appended to the accumulated transcript, diagram and action_items
// replace the previous value wholesale.
type UpdateData struct {
	Transcript  string      `json:"transcript,omitempty"`
	Diagram     string      `json:"diagram,omitempty"`
	ActionItems ActionItems `json:"action_items,omitempty"`
}

// ActionItems decodes either a JSON array of strings or a single
// string, which is normalized into a one-element list.
type ActionItems []string

func (a *ActionItems) UnmarshalJSON(raw []byte) error {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		*a = list
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		*a = []string{single}
		return nil
	}

	return fmt.Errorf("action_items: expected string or list of strings: %s", raw)
}

// ParseUpdate parses an inbound text frame. Unknown fields and unknown
// type values are not errors; malformed JSON is.
func ParseUpdate(raw []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("parse update: %w", err)
	}
	return &u, nil
}
