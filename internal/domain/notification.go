package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// TypeUserReference marks a notification whose data points at a user.
const TypeUserReference = 2

// Notification is an inbox entry of the signed-in admin.
type Notification struct {
	ID        FlexID           `json:"id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Type      int              `json:"type"`
	Data      NotificationData `json:"data"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// ReferencedUserID returns the user a user-reference notification links to.
func (n *Notification) ReferencedUserID() (FlexID, bool) {
	if n.Type != TypeUserReference || n.Data.ItemID.IsZero() {
		return "", false
	}
	return n.Data.ItemID, true
}

// NotificationData is the normalized payload of a notification. The API
// sends it either as an object or as a JSON-encoded string of one; both
// decode to the same value. Unparseable payloads decode as empty.
type NotificationData struct {
	ItemID FlexID         `json:"item_id,omitempty"`
	Fields map[string]any `json:"-"`
}

// UnmarshalJSON normalizes string and object payloads.
func (d *NotificationData) UnmarshalJSON(b []byte) error {
	*d = NotificationData{}

	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}

	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		return nil
	}
	d.Fields = fields

	if raw, ok := fields["item_id"]; ok {
		if enc, err := json.Marshal(raw); err == nil {
			_ = d.ItemID.UnmarshalJSON(enc)
		}
	}
	return nil
}

// MarshalJSON writes the payload back as an object.
func (d NotificationData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	if !d.ItemID.IsZero() {
		out["item_id"] = d.ItemID
	}
	return json.Marshal(out)
}
