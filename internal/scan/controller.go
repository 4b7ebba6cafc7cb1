package scan

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/model"
)

// State is the submission controller's position in its lifecycle.
type State int

const (
	// Idle: collecting vitals and an attachment, nothing in flight.
	Idle State = iota
	// Validating: a submit was requested, rules are being checked.
	Validating
	// Submitting: the analyze request is in flight. The submit action
	// is refused until the attempt finishes.
	Submitting
	// Succeeded: the service returned a diagnosis.
	Succeeded
	// Failed: validation or the remote call failed; Message explains.
	Failed
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// MsgCorrectVitals is the summary message for a failed validation pass.
const MsgCorrectVitals = "Please correct the errors in the patient vitals section"

var (
	// ErrValidation is returned by Start when the vitals are invalid;
	// the per-field detail is in FieldErrors.
	ErrValidation = errors.New("vitals validation failed")
	// ErrInFlight is returned by Start while an attempt is pending.
	ErrInFlight = errors.New("a submission is already in flight")
)

// Attempt is one frozen submission: the vitals and asset as they were
// when Start accepted them. The ID ties the asynchronous outcome back
// to this controller; a result carrying a stale or foreign ID is
// discarded by Finish.
type Attempt struct {
	ID     uuid.UUID
	Vitals model.PatientVitals
	Asset  *Asset
}

// Controller drives a single scan submission through its states. It is
// UI-agnostic and expects to be called from one event loop: Start
// freezes the form and hands back an Attempt for the caller to execute,
// Finish applies the outcome.
type Controller struct {
	log zerolog.Logger

	state     State
	vitals    model.PatientVitals
	asset     *Asset
	fieldErrs FieldErrors
	attemptID uuid.UUID
	result    *model.AnalysisResult
	message   string
}

// NewController returns a controller in Idle with empty vitals.
func NewController(log zerolog.Logger) *Controller {
	return &Controller{
		log:       log,
		fieldErrs: FieldErrors{},
		vitals:    model.PatientVitals{Gender: model.GenderMale},
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Vitals returns the current form values.
func (c *Controller) Vitals() model.PatientVitals { return c.vitals }

// Asset returns the current attachment, nil when none is attached.
func (c *Controller) Asset() *Asset { return c.asset }

// FieldErrors returns the inline errors from the last validation pass.
func (c *Controller) FieldErrors() FieldErrors { return c.fieldErrs }

// Result returns the diagnosis of the last successful attempt.
func (c *Controller) Result() *model.AnalysisResult { return c.result }

// Message returns the user-facing outcome of the last attempt.
func (c *Controller) Message() string { return c.message }

// SetVitals replaces the form values after an edit. The edited field's
// inline error is cleared without re-running the other rules, and a
// finished outcome (Succeeded/Failed) is reset so the operator starts a
// fresh attempt. Ignored while an attempt is in flight: the vitals are
// frozen for the whole Submitting phase.
func (c *Controller) SetVitals(v model.PatientVitals, editedField string) {
	if c.state == Submitting {
		return
	}
	c.vitals = v
	if editedField != "" {
		c.fieldErrs.Clear(editedField)
	}
	c.resetOutcome()
}

// Attach replaces the scan attachment. The previous asset and any prior
// result are discarded, per the one-asset-per-submission rule.
func (c *Controller) Attach(a *Asset) {
	if c.state == Submitting {
		return
	}
	c.asset.Release()
	c.asset = a
	c.fieldErrs.Clear(FieldImage)
	c.resetOutcome()
}

// SetFieldError records an inline error for one field outside a
// validation pass, e.g. when an attachment cannot be read from disk.
// Ignored while an attempt is in flight.
func (c *Controller) SetFieldError(field, msg string) {
	if c.state == Submitting {
		return
	}
	c.fieldErrs[field] = msg
}

// resetOutcome returns a finished controller to Idle and drops the
// previous result.
func (c *Controller) resetOutcome() {
	if c.state == Succeeded || c.state == Failed {
		c.state = Idle
		c.result = nil
		c.message = ""
	}
}

// Start runs the full validation pass and, when it succeeds, freezes
// the submission and transitions to Submitting. The caller executes the
// returned attempt (the network call) and reports back via Finish.
func (c *Controller) Start() (*Attempt, error) {
	if c.state == Submitting {
		return nil, ErrInFlight
	}

	c.state = Validating
	c.result = nil
	c.message = ""

	fe := Validate(c.vitals, c.asset != nil && !c.asset.Released())
	if !fe.Valid() {
		c.fieldErrs = fe
		c.state = Failed
		c.message = MsgCorrectVitals
		c.log.Debug().Int("violations", len(fe)).Msg("submission rejected by validation")
		return nil, ErrValidation
	}

	c.fieldErrs = FieldErrors{}
	c.attemptID = uuid.New()
	c.state = Submitting
	c.log.Info().Str("attempt", c.attemptID.String()).Str("patient", c.vitals.Name).Msg("submission started")

	return &Attempt{ID: c.attemptID, Vitals: c.vitals, Asset: c.asset}, nil
}

// Finish applies the outcome of an attempt. Outcomes for a superseded
// or foreign attempt (an abandoned workflow) are discarded, and the
// method reports whether the outcome was applied.
func (c *Controller) Finish(id uuid.UUID, res *model.AnalysisResult, err error) bool {
	if c.state != Submitting || id != c.attemptID {
		c.log.Debug().Str("attempt", id.String()).Msg("discarding outcome of abandoned attempt")
		return false
	}

	if err != nil {
		c.state = Failed
		c.message = api.UserMessage(err)
		c.log.Warn().Err(err).Str("attempt", id.String()).Msg("submission failed")
		return true
	}

	c.state = Succeeded
	c.result = res
	c.message = ""
	c.log.Info().Str("attempt", id.String()).Str("diagnosis", res.Diagnosis).Msg("submission succeeded")
	return true
}

// Reset clears the whole workflow back to an empty Idle form.
func (c *Controller) Reset() {
	c.asset.Release()
	*c = Controller{
		log:       c.log,
		fieldErrs: FieldErrors{},
		vitals:    model.PatientVitals{Gender: model.GenderMale},
	}
}
