// Package scan implements the submission side of the client: vitals
// validation, scan attachments and the controller that drives one
// submission from form to diagnosis.
package scan

import (
	"github.com/mrsinham/retinascan/internal/model"
)

// Field names used as FieldErrors keys.
const (
	FieldName  = "name"
	FieldAge   = "age"
	FieldPhone = "phone"
	FieldImage = "image"
)

// Validation messages shown inline next to the offending field.
const (
	MsgNameRequired  = "Full Name is required"
	MsgAgePositive   = "Age must be a positive number"
	MsgPhoneDigits   = "Phone number must be exactly 10 digits"
	MsgImageRequired = "A retinal scan image must be uploaded"
)

// FieldErrors maps a vitals field to its violation message. An empty
// set means the form is valid.
type FieldErrors map[string]string

// Valid reports whether no field is in violation.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Clear removes one field's error, leaving the others untouched. Used
// while the operator edits a field so unrelated errors do not flicker.
func (fe FieldErrors) Clear(field string) { delete(fe, field) }

// Validate checks every rule independently and reports all violations
// together. It is pure; a full pass always runs again at submit time.
func Validate(v model.PatientVitals, hasAttachedImage bool) FieldErrors {
	fe := FieldErrors{}
	if v.Name == "" {
		fe[FieldName] = MsgNameRequired
	}
	if v.Age <= 0 {
		fe[FieldAge] = MsgAgePositive
	}
	if !validPhone(v.Phone) {
		fe[FieldPhone] = MsgPhoneDigits
	}
	if !hasAttachedImage {
		fe[FieldImage] = MsgImageRequired
	}
	return fe
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
