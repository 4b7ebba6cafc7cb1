// Package model holds the domain types shared between the API client,
// the workflow components and the TUI.
package model

import "time"

// Gender is the patient gender as accepted by the analysis service.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// AllGenders returns the genders in form display order.
func AllGenders() []Gender {
	return []Gender{GenderMale, GenderFemale, GenderOther}
}

// PatientVitals is the patient information collected before a scan
// submission. It is mutable while the form is open and copied (frozen)
// when a submission attempt starts.
type PatientVitals struct {
	Name   string
	Age    int
	Gender Gender
	Phone  string
}

// User is the session identity returned by the login endpoint and kept
// in the session repository across restarts.
type User struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AnalysisResult is the payload returned by a successful scan submission.
// Heatmap is a data URI produced by the inference pipeline.
type AnalysisResult struct {
	Diagnosis  string   `json:"diagnosis"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	Heatmap    string   `json:"heatmap"`
}

// RecordSummary is the list-view projection of a diagnosis record. The
// history endpoint omits the image payloads for transfer economy.
type RecordSummary struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    Gender    `json:"gender"`
	Phone     string    `json:"phone"`
	Date      time.Time `json:"date"`
	Diagnosis string    `json:"diagnosis"`
	Severity  Severity  `json:"severity"`
}

// DiagnosisRecord is the full record as served by the detail endpoint,
// images included. Records are created only by the analysis service and
// never updated, so there is no write model for them here.
type DiagnosisRecord struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     Gender    `json:"gender"`
	Phone      string    `json:"phone"`
	Date       time.Time `json:"date"`
	Diagnosis  string    `json:"diagnosis"`
	Severity   Severity  `json:"severity"`
	Confidence float64   `json:"confidence"`
	Image      string    `json:"image"`
	Heatmap    string    `json:"heatmap"`
}

// Loaded reports whether the record carries a server identity, i.e. the
// detail fetch has completed. The report exporter refuses anything else.
func (r *DiagnosisRecord) Loaded() bool {
	return r != nil && r.ID != ""
}
