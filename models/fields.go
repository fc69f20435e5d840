// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// FieldType is the semantic type of a structured custom field inside a
// record payload. The enumeration is stable across client versions: values
// are never renumbered or reused.
type FieldType string

const (
	// FieldText is a plain single-line text value.
	FieldText FieldType = "text"

	// FieldHidden is a secret value masked in any UI (passwords, PINs).
	FieldHidden FieldType = "hidden"

	// FieldURL is a resource locator associated with the record.
	FieldURL FieldType = "url"

	// FieldOTP is a one-time-password seed URI (otpauth://).
	FieldOTP FieldType = "otp"

	// FieldHost is a host:port pair for server-type records.
	FieldHost FieldType = "host"

	// FieldPhone is a phone number.
	FieldPhone FieldType = "phone"
)

// knownFieldTypes lists every field type this client understands. Anything
// else round-trips opaquely through CustomField.raw.
var knownFieldTypes = map[FieldType]struct{}{
	FieldText:   {},
	FieldHidden: {},
	FieldURL:    {},
	FieldOTP:    {},
	FieldHost:   {},
	FieldPhone:  {},
}

// CustomField is one user-defined field of a record. Fields written by newer
// clients may carry types this implementation does not understand; those are
// preserved byte-for-byte and written back unchanged, so saving a record
// never silently drops data.
type CustomField struct {
	// Type is the semantic field type.
	Type FieldType `json:"type"`

	// Label is the user-visible field name.
	Label string `json:"label,omitempty"`

	// Value is the field content. Secret-bearing types (hidden, otp) are
	// only ever held decrypted in memory, inside an already-decrypted
	// record payload.
	Value string `json:"value,omitempty"`

	// raw holds the original JSON of a field whose Type is unknown.
	// When set, marshalling emits it verbatim.
	raw json.RawMessage
}

// Known reports whether the field's type is understood by this client.
func (f *CustomField) Known() bool {
	return f.raw == nil
}

// UnmarshalJSON decodes a custom field, keeping the raw bytes whenever the
// field type is not in the known set.
func (f *CustomField) UnmarshalJSON(b []byte) error {
	type alias CustomField
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*f = CustomField(a)
	if _, ok := knownFieldTypes[f.Type]; !ok {
		f.raw = append(json.RawMessage(nil), b...)
	}
	return nil
}

// MarshalJSON re-emits unknown fields verbatim and known fields from their
// typed representation.
func (f CustomField) MarshalJSON() ([]byte, error) {
	if f.raw != nil {
		return f.raw, nil
	}
	type alias CustomField
	return json.Marshal(alias(f))
}
