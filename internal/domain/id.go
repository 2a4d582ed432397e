package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexID is a resource identifier that the admin API sends either as a JSON
// number or as a string. It is kept in its textual form.
type FlexID string

// UnmarshalJSON accepts a string, a number or null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = FlexID(n.String())
	}
	return nil
}

// MarshalJSON writes integer IDs as numbers, other IDs as strings and the
// empty ID as null.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, ok := id.Int64(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// Int64 returns the numeric value of an integer ID.
func (id FlexID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

func (id FlexID) String() string { return string(id) }

// IsZero reports whether the ID is empty.
func (id FlexID) IsZero() bool { return id == "" }

// IDFromInt formats a numeric ID.
func IDFromInt(n int64) FlexID {
	return FlexID(strconv.FormatInt(n, 10))
}
