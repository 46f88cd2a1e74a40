package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventGenerateReturn is logged whenever a return is persisted.
const EventGenerateReturn = "GENERATE_RETURN"

// AuditLog is an append-only record of a compliance-relevant action.
type AuditLog struct {
	ID        int64        `json:"id"`
	EventType string       `json:"event_type"`
	Details   AuditDetails `json:"details"`
	UserTIN   string       `json:"user_tin,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// AuditDetails is free-form event data stored as JSON.
type AuditDetails map[string]interface{}

// Value implements driver.Valuer for JSONB
func (d AuditDetails) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(d))
}

// Scan implements sql.Scanner for JSONB
func (d *AuditDetails) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = AuditDetails{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported audit details column type %T", value)
	}
	if len(raw) == 0 {
		*d = AuditDetails{}
		return nil
	}
	return json.Unmarshal(raw, (*map[string]interface{})(d))
}
