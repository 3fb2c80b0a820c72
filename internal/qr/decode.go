// Package qr extracts student identity from scanned QR payloads.
//
// Payloads arrive as JSON objects produced by an external generator. Two
// key-naming conventions are in circulation (camelCase and snake_case); each
// field is looked up under both names and defaults to "" when absent under
// either. Only a payload that is not valid JSON, or not an object, is a hard
// decode failure.
package qr

import (
	"encoding/json"
	"errors"
)

// ErrInvalidPayload is returned when the scanned data is not a JSON object.
var ErrInvalidPayload = errors.New("invalid QR code format")

// StudentRecord is the identity decoded from one scanned QR code. It lives
// only between the scan and the operator's approve/reject decision.
type StudentRecord struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CSY       string `json:"CSY"`
	StudentID string `json:"studentId"`
	Gbox      string `json:"gbox"`
}

// Decode parses a scanned payload into a StudentRecord.
func Decode(data []byte) (StudentRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return StudentRecord{}, ErrInvalidPayload
	}
	return StudentRecord{
		FirstName: pick(fields, "firstName", "first_name"),
		LastName:  pick(fields, "lastName", "last_name"),
		CSY:       pick(fields, "CSY", "course_year_section"),
		StudentID: pick(fields, "studentId", "student_id"),
		Gbox:      pick(fields, "gbox", "email"),
	}, nil
}

// pick returns the first non-empty string value found under the given keys.
func pick(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if val, ok := fields[key].(string); ok && val != "" {
			return val
		}
	}
	return ""
}
