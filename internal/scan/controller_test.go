package scan

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/model"
)

func testAsset() *Asset {
	return &Asset{Path: "scan.png", Filename: "scan.png", Data: []byte{1, 2, 3}}
}

func readyController() *Controller {
	c := NewController(zerolog.Nop())
	c.SetVitals(model.PatientVitals{Name: "Jane Doe", Age: 54, Gender: model.GenderFemale, Phone: "0123456789"}, "")
	c.Attach(testAsset())
	return c
}

func TestController_HappyPath(t *testing.T) {
	c := readyController()
	if c.State() != Idle {
		t.Fatalf("initial state = %s, want idle", c.State())
	}

	att, err := c.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != Submitting {
		t.Fatalf("state after Start = %s, want submitting", c.State())
	}
	if att.Vitals.Name != "Jane Doe" {
		t.Errorf("attempt vitals not frozen: %+v", att.Vitals)
	}

	res := &model.AnalysisResult{Diagnosis: "Severe DR", Severity: model.SeveritySevere, Confidence: 97.4}
	if !c.Finish(att.ID, res, nil) {
		t.Fatal("outcome for the live attempt must be applied")
	}
	if c.State() != Succeeded {
		t.Errorf("state = %s, want succeeded", c.State())
	}
	// Response fields exposed unchanged.
	if got := c.Result(); got.Diagnosis != "Severe DR" || got.Severity != model.SeveritySevere || got.Confidence != 97.4 {
		t.Errorf("result mutated: %+v", got)
	}
}

func TestController_ValidationFailureSkipsNetwork(t *testing.T) {
	c := readyController()
	v := c.Vitals()
	v.Age = 0
	c.SetVitals(v, FieldAge)

	att, err := c.Start()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if att != nil {
		t.Error("no attempt may exist for an invalid form")
	}
	if c.State() != Failed {
		t.Errorf("state = %s, want failed", c.State())
	}
	if c.Message() != MsgCorrectVitals {
		t.Errorf("message = %q, want summary message", c.Message())
	}
	fe := c.FieldErrors()
	if len(fe) != 1 || fe[FieldAge] != MsgAgePositive {
		t.Errorf("field errors = %v, want only the age error", fe)
	}
}

func TestController_SingleFlight(t *testing.T) {
	c := readyController()
	att, err := c.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := c.Start(); !errors.Is(err, ErrInFlight) {
		t.Errorf("second Start should be refused, got %v", err)
	}

	// Vitals stay frozen while submitting.
	c.SetVitals(model.PatientVitals{Name: "Other"}, FieldName)
	if c.Vitals().Name != "Jane Doe" {
		t.Error("vitals must not change during the submitting phase")
	}

	c.Finish(att.ID, &model.AnalysisResult{}, nil)
}

func TestController_ConflictSurfacedVerbatim(t *testing.T) {
	c := readyController()
	att, _ := c.Start()

	backendMsg := "Patient Jane Doe (0123456789) already has a record."
	c.Finish(att.ID, nil, &api.ConflictError{Message: backendMsg})

	if c.State() != Failed {
		t.Fatalf("state = %s, want failed", c.State())
	}
	if c.Message() != backendMsg {
		t.Errorf("message = %q, want backend message verbatim", c.Message())
	}
	if c.Result() != nil {
		t.Error("no local record may be created on conflict")
	}
}

func TestController_TransportFailureGenericMessage(t *testing.T) {
	c := readyController()
	att, _ := c.Start()

	c.Finish(att.ID, nil, &api.TransportError{Err: errors.New("connection refused")})
	if c.Message() != api.GenericMessage {
		t.Errorf("message = %q, want generic message", c.Message())
	}

	// The controller is retryable: a fresh Start must be accepted.
	if _, err := c.Start(); err != nil {
		t.Errorf("retry after failure refused: %v", err)
	}
}

func TestController_AbandonedAttemptDiscarded(t *testing.T) {
	c := readyController()
	att, _ := c.Start()

	// The operator abandons the workflow before the result lands.
	c.Reset()
	c.SetVitals(model.PatientVitals{Name: "Someone Else", Age: 30, Phone: "9999999999"}, "")

	if c.Finish(att.ID, &model.AnalysisResult{Diagnosis: "stale"}, nil) {
		t.Error("outcome of an abandoned attempt must be discarded")
	}
	if c.Result() != nil {
		t.Error("stale result leaked into the new workflow")
	}
}

func TestController_ForeignAttemptIDDiscarded(t *testing.T) {
	c := readyController()
	_, err := c.Start()
	if err != nil {
		t.Fatal(err)
	}

	if c.Finish(uuid.New(), &model.AnalysisResult{}, nil) {
		t.Error("outcome with a foreign attempt ID must be discarded")
	}
	if c.State() != Submitting {
		t.Errorf("state = %s, discarding must not change state", c.State())
	}
}

func TestController_AttachResetsFinishedOutcome(t *testing.T) {
	c := readyController()
	att, _ := c.Start()
	c.Finish(att.ID, &model.AnalysisResult{Diagnosis: "Moderate DR"}, nil)
	if c.State() != Succeeded {
		t.Fatal("setup: expected succeeded")
	}

	previous := c.Asset()
	c.Attach(testAsset())

	if c.State() != Idle {
		t.Errorf("state = %s, attaching should reset to idle", c.State())
	}
	if c.Result() != nil {
		t.Error("previous result must be discarded")
	}
	if !previous.Released() {
		t.Error("previous asset must be released")
	}
}

func TestController_SetFieldError(t *testing.T) {
	c := readyController()
	c.SetFieldError(FieldImage, "Could not read scan: boom")
	if got := c.FieldErrors()[FieldImage]; got != "Could not read scan: boom" {
		t.Errorf("field error = %q, want the recorded message", got)
	}

	// A new attachment clears the image error like any inline error.
	c.Attach(testAsset())
	if _, ok := c.FieldErrors()[FieldImage]; ok {
		t.Error("attaching must clear the image field error")
	}

	// Frozen while an attempt is in flight.
	att, err := c.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.SetFieldError(FieldImage, "late")
	if _, ok := c.FieldErrors()[FieldImage]; ok {
		t.Error("field errors must not change during the submitting phase")
	}
	c.Finish(att.ID, &model.AnalysisResult{}, nil)
}

func TestController_EditVitalsClearsOnlyEditedFieldError(t *testing.T) {
	c := NewController(zerolog.Nop())
	// Invalid everything, then fail validation once.
	c.SetVitals(model.PatientVitals{}, "")
	if _, err := c.Start(); !errors.Is(err, ErrValidation) {
		t.Fatal("setup: expected validation failure")
	}

	v := c.Vitals()
	v.Name = "Jane Doe"
	c.SetVitals(v, FieldName)

	fe := c.FieldErrors()
	if _, ok := fe[FieldName]; ok {
		t.Error("edited field's error should be cleared")
	}
	if _, ok := fe[FieldAge]; !ok {
		t.Error("other field errors must remain until the next full pass")
	}
}
