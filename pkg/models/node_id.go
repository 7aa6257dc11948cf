package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NodeID identifies a phase or task within a flow configuration. The wire
// format allows either a JSON number or a JSON string and the two spellings
// are distinct identifiers, so the original representation is preserved.
//
// The zero value means "no id assigned yet"; it marshals as JSON null and is
// only expected to appear on input, before id assignment runs.
type NodeID struct {
	text    string
	num     int64
	numeric bool
	present bool
}

// IntID builds a numeric node id.
func IntID(v int64) NodeID {
	return NodeID{num: v, numeric: true, present: true}
}

// StringID builds a textual node id.
func StringID(s string) NodeID {
	return NodeID{text: s, present: true}
}

// IsZero reports whether the id is unassigned.
func (id NodeID) IsZero() bool {
	return !id.present
}

// Int returns the numeric value and whether the id is numeric.
func (id NodeID) Int() (int64, bool) {
	return id.num, id.numeric && id.present
}

func (id NodeID) String() string {
	if !id.present {
		return "<unset>"
	}

	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}

	return id.text
}

func (id NodeID) MarshalJSON() ([]byte, error) {
	if !id.present {
		return []byte("null"), nil
	}

	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}

	return json.Marshal(id.text)
}

func (id *NodeID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*id = NodeID{}

		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = StringID(s)

		return nil
	}

	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fmt.Errorf("node id must be an integer or a string: %w", err)
	}

	*id = IntID(n)

	return nil
}

// JoinNodeIDs renders ids as "a -> b -> c", used for cycle diagnostics.
func JoinNodeIDs(ids []NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}

	return strings.Join(parts, " -> ")
}
