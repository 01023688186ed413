package model

import "errors"

// MaxRecordIDLen matches deliveries.record_id.
const MaxRecordIDLen = 64

var ErrRecordIDTooLong = errors.New("record id longer than 64 bytes")

// Record is a unit of work carrying named string attributes.
type Record struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`

	// Handle is host-owned acknowledgement state (a Kafka message, a raw
	// Redis payload). It is never serialized.
	Handle any `json:"-"`
}

// Attr returns the attribute value and whether it is present.
func (r *Record) Attr(name string) (string, bool) {
	if r == nil || r.Attributes == nil {
		return "", false
	}
	v, ok := r.Attributes[name]
	return v, ok
}

// ValidateID rejects ids the audit trail cannot store. Empty ids are valid;
// hosts assign one.
func ValidateID(id string) error {
	if len(id) > MaxRecordIDLen {
		return ErrRecordIDTooLong
	}
	return nil
}
