package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexID is an identifier that the API may send either as a JSON string or as a JSON number.
// It is always held and compared in its string form.
type FlexID string

func (id FlexID) String() string {
	return string(id)
}

func (id FlexID) IsZero() bool {
	return id == ""
}

func (id *FlexID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode id string: %w", err)
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode id number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}
