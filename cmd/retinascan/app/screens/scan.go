package screens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/cmd/retinascan/app/components"
	"github.com/mrsinham/retinascan/internal/model"
	"github.com/mrsinham/retinascan/internal/scan"
)

const analyzeTimeout = 2 * time.Minute

// Actions offered at the bottom of the vitals form.
const (
	actionAnalyze = "Analyze Scan"
	actionRecords = "Patient Records"
	actionLogout  = "Logout"
)

// AnalyzeClient is the slice of the API client the scan screen needs.
type AnalyzeClient interface {
	Analyze(ctx context.Context, vitals model.PatientVitals, filename string, image []byte) (*model.AnalysisResult, error)
}

// assetLoadedMsg reports the outcome of reading a scan from disk.
type assetLoadedMsg struct {
	path  string
	asset *scan.Asset
	err   error
}

// analyzeDoneMsg reports the outcome of one submission attempt. The ID
// lets the controller discard outcomes of abandoned attempts.
type analyzeDoneMsg struct {
	id  uuid.UUID
	res *model.AnalysisResult
	err error
}

// ScanScreen is the New Patient Scan workspace: the vitals form, the
// attachment, the submission lifecycle and the diagnosis view.
type ScanScreen struct {
	ctrl   *scan.Controller
	client AnalyzeClient
	log    zerolog.Logger

	form *huh.Form
	spin spinner.Model

	// form bindings
	name      string
	ageStr    string
	gender    model.Gender
	phone     string
	imagePath string
	action    string

	loadedPath string
	cancelled  bool
	width      int
	height     int
}

// NewScanScreen creates the workspace with an empty form.
func NewScanScreen(client AnalyzeClient, log zerolog.Logger) *ScanScreen {
	s := &ScanScreen{
		ctrl:   scan.NewController(log),
		client: client,
		log:    log,
		gender: model.GenderMale,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	s.buildForm()
	return s
}

func (s *ScanScreen) buildForm() {
	genderOpts := make([]huh.Option[model.Gender], 0, 3)
	for _, g := range model.AllGenders() {
		genderOpts = append(genderOpts, huh.NewOption(string(g), g))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Full Name").
				Value(&s.name),

			huh.NewInput().
				Key("age").
				Title("Age").
				Value(&s.ageStr),

			huh.NewSelect[model.Gender]().
				Key("gender").
				Title("Gender").
				Options(genderOpts...).
				Value(&s.gender),

			huh.NewInput().
				Key("phone").
				Title("Phone Number").
				Placeholder("10 digits").
				Value(&s.phone),

			huh.NewInput().
				Key("image").
				Title("Retinal Scan").
				Placeholder("path to .png/.jpg/.dcm").
				Value(&s.imagePath),

			huh.NewSelect[string]().
				Key("action").
				Title("Action").
				Options(
					huh.NewOption(actionAnalyze, actionAnalyze),
					huh.NewOption(actionRecords, actionRecords),
					huh.NewOption(actionLogout, actionLogout),
				).
				Value(&s.action),
		),
	).WithShowHelp(false).WithShowErrors(false)
}

// Init implements tea.Model
func (s *ScanScreen) Init() tea.Cmd {
	return tea.Batch(s.form.Init(), s.spin.Tick)
}

// Update implements tea.Model
func (s *ScanScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case assetLoadedMsg:
		return s.onAssetLoaded(msg)

	case analyzeDoneMsg:
		s.ctrl.Finish(msg.id, msg.res, msg.err)
		if s.ctrl.State() == scan.Failed {
			s.buildForm()
			return s, s.form.Init()
		}
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s.cancelled = true
			return s, tea.Quit
		}
		// Submission in flight: the form is frozen, only quit works.
		if s.ctrl.State() == scan.Submitting {
			return s, nil
		}
		if s.ctrl.State() == scan.Succeeded {
			return s.onResultKey(msg)
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		return s.onFormComplete(cmd)
	}

	return s, cmd
}

// onResultKey handles keys on the diagnosis view.
func (s *ScanScreen) onResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		s.resetForm()
		return s, s.form.Init()
	case "r":
		return s, func() tea.Msg { return GotoRecordsMsg{} }
	case "ctrl+l":
		return s, func() tea.Msg { return LogoutMsg{} }
	}
	return s, nil
}

// onFormComplete routes the selected action once the form is submitted.
func (s *ScanScreen) onFormComplete(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	action := s.action

	// Re-arm the form; every path below either stays on it or leaves
	// the screen entirely.
	s.buildForm()

	switch action {
	case actionRecords:
		return s, func() tea.Msg { return GotoRecordsMsg{} }
	case actionLogout:
		return s, func() tea.Msg { return LogoutMsg{} }
	}

	s.applyVitals()

	if s.imagePath != "" && s.imagePath != s.loadedPath {
		path := s.imagePath
		return s, tea.Batch(s.form.Init(), func() tea.Msg {
			asset, err := scan.LoadAsset(path)
			return assetLoadedMsg{path: path, asset: asset, err: err}
		})
	}

	return s, tea.Batch(s.form.Init(), s.startAttempt())
}

// onAssetLoaded attaches the freshly read scan and starts the attempt
// the operator asked for.
func (s *ScanScreen) onAssetLoaded(msg assetLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		s.log.Warn().Err(msg.err).Str("path", msg.path).Msg("scan attachment failed")
		s.loadedPath = ""
		s.ctrl.SetFieldError(scan.FieldImage, fmt.Sprintf("Could not read scan: %v", msg.err))
		return s, nil
	}
	s.ctrl.Attach(msg.asset)
	s.loadedPath = msg.path
	return s, s.startAttempt()
}

// applyVitals pushes the form values into the controller, clearing the
// inline error of each field the operator changed.
func (s *ScanScreen) applyVitals() {
	age, err := strconv.Atoi(strings.TrimSpace(s.ageStr))
	if err != nil {
		age = 0
	}
	next := model.PatientVitals{
		Name:   strings.TrimSpace(s.name),
		Age:    age,
		Gender: s.gender,
		Phone:  strings.TrimSpace(s.phone),
	}

	prev := s.ctrl.Vitals()
	var edited []string
	if next.Name != prev.Name {
		edited = append(edited, scan.FieldName)
	}
	if next.Age != prev.Age {
		edited = append(edited, scan.FieldAge)
	}
	if next.Phone != prev.Phone {
		edited = append(edited, scan.FieldPhone)
	}

	if len(edited) == 0 {
		s.ctrl.SetVitals(next, "")
		return
	}
	for _, f := range edited {
		s.ctrl.SetVitals(next, f)
	}
}

// startAttempt asks the controller to start the submission and, when
// validation passes, returns the command that runs the remote call.
func (s *ScanScreen) startAttempt() tea.Cmd {
	att, err := s.ctrl.Start()
	if err != nil {
		if !errors.Is(err, scan.ErrValidation) && !errors.Is(err, scan.ErrInFlight) {
			s.log.Error().Err(err).Msg("submission refused")
		}
		return nil
	}

	client := s.client
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		res, err := client.Analyze(ctx, att.Vitals, att.Asset.Filename, att.Asset.Data)
		return analyzeDoneMsg{id: att.ID, res: res, err: err}
	})
}

// resetForm clears the whole workflow for the next patient.
func (s *ScanScreen) resetForm() {
	s.ctrl.Reset()
	s.name = ""
	s.ageStr = ""
	s.gender = model.GenderMale
	s.phone = ""
	s.imagePath = ""
	s.loadedPath = ""
	s.buildForm()
}

// View implements tea.Model
func (s *ScanScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("New Patient Scan")

	switch s.ctrl.State() {
	case scan.Submitting:
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			fmt.Sprintf("%s Analyzing retinal scan...", s.spin.View()),
			"",
			components.HintStyle.Render("The form is locked until the analysis finishes."),
		)
	case scan.Succeeded:
		return s.resultView(title)
	}

	parts := []string{title}
	if msg := s.ctrl.Message(); msg != "" && s.ctrl.State() == scan.Failed {
		parts = append(parts, components.ErrorBannerStyle.Render(msg), "")
	}
	parts = append(parts, s.form.View())

	if fe := s.ctrl.FieldErrors(); !fe.Valid() {
		keys := make([]string, 0, len(fe))
		for k := range fe {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, components.FieldErrorStyle.Render("• "+fe[k]))
		}
	}

	if a := s.ctrl.Asset(); a != nil && !a.Released() {
		parts = append(parts, "", components.LabelStyle.Render("Attached: ")+components.ValueStyle.Render(a.Filename))
	}

	parts = append(parts, "", components.HintStyle.Render("Enter: Next field | Ctrl+C: Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// resultView renders the diagnosis of the completed submission.
func (s *ScanScreen) resultView(title string) string {
	res := s.ctrl.Result()
	vitals := s.ctrl.Vitals()

	lines := []string{
		components.LabelStyle.Render("Patient: ") + components.ValueStyle.Render(fmt.Sprintf("%s, %d, %s", vitals.Name, vitals.Age, vitals.Gender)),
		"",
		components.LabelStyle.Render("Diagnosis: ") + components.SeverityBadge(res.Severity, res.Diagnosis),
		components.LabelStyle.Render("Stage: ") + components.SeverityBadge(res.Severity, fmt.Sprintf("Stage %d (%s)", int(res.Severity), res.Severity)),
		components.LabelStyle.Render("Confidence: ") + components.ValueStyle.Render(fmt.Sprintf("%.2f%%", res.Confidence)),
	}
	if res.Heatmap != "" {
		lines = append(lines, components.LabelStyle.Render("Heatmap: ")+"received (open the web portal for full resolution)")
	}

	panel := components.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	parts := []string{title, panel}
	if a := s.ctrl.Asset(); a != nil && !a.Released() && a.Preview != nil {
		parts = append(parts, "", components.ImagePreview(a.Preview, 48))
	}
	parts = append(parts, "", components.HintStyle.Render("n: New scan | r: Patient records | Ctrl+L: Logout"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Cancelled returns true if the user quit from this screen
func (s *ScanScreen) Cancelled() bool { return s.cancelled }

// Controller exposes the submission controller, for the orchestrator's
// tests.
func (s *ScanScreen) Controller() *scan.Controller { return s.ctrl }
