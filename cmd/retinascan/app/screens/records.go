package screens

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/cmd/retinascan/app/components"
	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/model"
	"github.com/mrsinham/retinascan/internal/records"
	"github.com/mrsinham/retinascan/internal/report"
)

const requestTimeout = 30 * time.Second

// historyLoadedMsg reports the outcome of a list fetch.
type historyLoadedMsg struct {
	seq  uint64
	list []model.RecordSummary
	err  error
}

// detailLoadedMsg reports the outcome of a detail fetch.
type detailLoadedMsg struct {
	seq uint64
	rec *model.DiagnosisRecord
	err error
}

// deleteDoneMsg reports the outcome of a remote delete. resync is true
// when the list must be re-fetched (success, or a 404 where the record
// is already gone).
type deleteDoneMsg struct {
	id     string
	resync bool
	err    error
}

// exportDoneMsg reports the outcome of a report export.
type exportDoneMsg struct {
	path string
	err  error
}

// RecordsScreen is the Patient Records workspace: the searchable,
// severity-filtered list, the record detail view, deletion and report
// export.
type RecordsScreen struct {
	store     *records.Store
	mgr       *records.Manager
	client    records.RemoteClient
	log       zerolog.Logger
	reportDir string

	tbl    table.Model
	search textinput.Model
	spin   spinner.Model

	visible    []model.RecordSummary
	severity   model.SeverityFilter
	searching  bool
	detailOpen bool
	detailID   string
	loading    bool
	deleting   bool
	notice     string
	errMsg     string
	cancelled  bool
	width      int
	height     int
}

// NewRecordsScreen creates the workspace. The first list fetch starts
// in Init.
func NewRecordsScreen(client records.RemoteClient, store *records.Store, mgr *records.Manager, reportDir string, log zerolog.Logger) *RecordsScreen {
	search := textinput.New()
	search.Placeholder = "name or phone"
	search.CharLimit = 64

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 22},
			{Title: "Age", Width: 4},
			{Title: "Gender", Width: 7},
			{Title: "Phone", Width: 12},
			{Title: "Date", Width: 11},
			{Title: "Diagnosis", Width: 24},
			{Title: "Stage", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return &RecordsScreen{
		store:     store,
		mgr:       mgr,
		client:    client,
		log:       log,
		reportDir: reportDir,
		tbl:       tbl,
		search:    search,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		severity:  model.FilterAll(),
	}
}

// Init implements tea.Model
func (s *RecordsScreen) Init() tea.Cmd {
	return tea.Batch(s.spin.Tick, s.refresh())
}

// refresh registers a list fetch on the store and returns the command
// executing it.
func (s *RecordsScreen) refresh() tea.Cmd {
	seq := s.store.BeginLoad()
	s.loading = true
	client := s.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := client.History(ctx)
		return historyLoadedMsg{seq: seq, list: list, err: err}
	}
}

// Update implements tea.Model
func (s *RecordsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case historyLoadedMsg:
		s.loading = false
		if s.store.FinishLoad(msg.seq, msg.list, msg.err) {
			s.errMsg = ""
		} else if msg.err != nil {
			s.errMsg = api.UserMessage(msg.err)
		}
		s.applyFilter()
		return s, nil

	case detailLoadedMsg:
		s.store.FinishDetail(msg.seq, msg.rec, msg.err)
		return s, nil

	case deleteDoneMsg:
		return s.onDeleteDone(msg)

	case exportDoneMsg:
		if msg.err != nil {
			s.errMsg = fmt.Sprintf("Report export failed: %v", msg.err)
		} else {
			s.notice = "Report saved to " + msg.path
		}
		return s, nil

	case tea.KeyMsg:
		return s.onKey(msg)
	}

	return s, nil
}

func (s *RecordsScreen) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		s.cancelled = true
		return s, tea.Quit
	}

	// A delete is pending; hold interaction until its outcome and the
	// follow-up resync have been applied.
	if s.deleting {
		return s, nil
	}

	if s.detailOpen {
		return s.onDetailKey(msg)
	}

	if s.searching {
		switch msg.String() {
		case "esc", "enter":
			s.searching = false
			s.search.Blur()
			return s, nil
		}
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		s.applyFilter()
		return s, cmd
	}

	switch msg.String() {
	case "/":
		s.searching = true
		s.search.Focus()
		return s, textinput.Blink
	case "f":
		s.cycleSeverity()
		s.applyFilter()
		return s, nil
	case "ctrl+r":
		return s, s.refresh()
	case "enter":
		return s.openDetail()
	case "x":
		return s.deleteSelected()
	case "n":
		return s, func() tea.Msg { return GotoScanMsg{} }
	case "ctrl+l":
		return s, func() tea.Msg { return LogoutMsg{} }
	}

	var cmd tea.Cmd
	s.tbl, cmd = s.tbl.Update(msg)
	return s, cmd
}

func (s *RecordsScreen) onDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.store.CloseDetail()
		s.detailOpen = false
		s.detailID = ""
		return s, nil
	case "e":
		rec, loading, _ := s.store.Detail()
		if loading || !rec.Loaded() {
			return s, nil
		}
		dir := s.reportDir
		return s, func() tea.Msg {
			path, err := report.ExportFile(rec, dir)
			return exportDoneMsg{path: path, err: err}
		}
	case "x":
		rec, loading, _ := s.store.Detail()
		if loading || !rec.Loaded() {
			return s, nil
		}
		return s, s.startDelete(rec.ID)
	}
	return s, nil
}

// openDetail starts the detail fetch for the selected row.
func (s *RecordsScreen) openDetail() (tea.Model, tea.Cmd) {
	idx := s.tbl.Cursor()
	if idx < 0 || idx >= len(s.visible) {
		return s, nil
	}
	id := s.visible[idx].ID

	seq := s.store.BeginDetail(id)
	s.detailOpen = true
	s.detailID = id
	client := s.client
	return s, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rec, err := client.PatientDetail(ctx, id)
		return detailLoadedMsg{seq: seq, rec: rec, err: err}
	}
}

func (s *RecordsScreen) deleteSelected() (tea.Model, tea.Cmd) {
	idx := s.tbl.Cursor()
	if idx < 0 || idx >= len(s.visible) {
		return s, nil
	}
	return s, s.startDelete(s.visible[idx].ID)
}

// startDelete runs only the remote delete in the command; the store is
// mutated exclusively on the event loop, so the resync goes through the
// refresh message path once the outcome arrives. The deleting flag
// freezes interaction until then.
func (s *RecordsScreen) startDelete(id string) tea.Cmd {
	s.deleting = true
	s.notice = ""
	s.errMsg = ""
	mgr := s.mgr
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resync, err := mgr.Remove(ctx, id)
		return deleteDoneMsg{id: id, resync: resync, err: err}
	}
}

func (s *RecordsScreen) onDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	s.deleting = false
	if msg.err != nil {
		s.errMsg = api.UserMessage(msg.err)
	} else {
		s.notice = "Record deleted."
	}
	if s.detailOpen && s.detailID == msg.id {
		s.store.CloseDetail()
		s.detailOpen = false
		s.detailID = ""
	}
	var cmd tea.Cmd
	if msg.resync {
		cmd = s.refresh()
	}
	s.applyFilter()
	return s, cmd
}

// cycleSeverity steps the filter All -> 0 -> 1 -> 2 -> All.
func (s *RecordsScreen) cycleSeverity() {
	switch s.severity.String() {
	case "All":
		s.severity = model.FilterStage(model.SeverityMild)
	case "0":
		s.severity = model.FilterStage(model.SeverityModerate)
	case "1":
		s.severity = model.FilterStage(model.SeveritySevere)
	default:
		s.severity = model.FilterAll()
	}
}

// applyFilter rebuilds the table rows from the store's cache.
func (s *RecordsScreen) applyFilter() {
	s.visible = s.store.Filter(s.search.Value(), s.severity)

	rows := make([]table.Row, 0, len(s.visible))
	for _, r := range s.visible {
		rows = append(rows, table.Row{
			r.Name,
			fmt.Sprintf("%d", r.Age),
			string(r.Gender),
			r.Phone,
			r.Date.Format("2006-01-02"),
			r.Diagnosis,
			fmt.Sprintf("%d", r.Severity),
		})
	}
	s.tbl.SetRows(rows)
	if s.tbl.Cursor() >= len(rows) {
		s.tbl.SetCursor(0)
	}
}

// View implements tea.Model
func (s *RecordsScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("Patient Records")

	if s.detailOpen {
		return s.detailView(title)
	}

	parts := []string{title}
	if s.errMsg != "" {
		parts = append(parts, components.ErrorBannerStyle.Render(s.errMsg), "")
	}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}

	filterLine := components.LabelStyle.Render("Search: ") + s.search.View() +
		components.LabelStyle.Render("   Stage: ") + components.ValueStyle.Render(s.severity.String())
	parts = append(parts, filterLine, "")

	switch {
	case s.deleting:
		parts = append(parts, fmt.Sprintf("%s Deleting record...", s.spin.View()))
	case s.loading && !s.store.Loaded():
		parts = append(parts, fmt.Sprintf("%s Loading records...", s.spin.View()))
	case len(s.visible) == 0:
		parts = append(parts, components.HintStyle.Render("No records match."))
	default:
		parts = append(parts, s.tbl.View())
	}

	parts = append(parts, "",
		components.HintStyle.Render("/: Search | f: Stage filter | Enter: Detail | x: Delete | Ctrl+R: Refresh | n: New scan | Ctrl+L: Logout"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// detailView renders the record detail, its loading state or its error.
func (s *RecordsScreen) detailView(title string) string {
	rec, loading, err := s.store.Detail()

	parts := []string{title}
	switch {
	case s.deleting:
		parts = append(parts, fmt.Sprintf("%s Deleting record...", s.spin.View()))
	case loading:
		parts = append(parts, fmt.Sprintf("%s Loading record...", s.spin.View()))
	case err != nil:
		parts = append(parts, components.ErrorBannerStyle.Render(api.UserMessage(err)))
	case rec.Loaded():
		lines := []string{
			components.LabelStyle.Render("Patient: ") + components.ValueStyle.Render(fmt.Sprintf("%s, %d, %s", rec.Name, rec.Age, rec.Gender)),
			components.LabelStyle.Render("Phone: ") + components.ValueStyle.Render(rec.Phone),
			components.LabelStyle.Render("Date: ") + components.ValueStyle.Render(rec.Date.Format("2006-01-02 15:04")),
			"",
			components.LabelStyle.Render("Diagnosis: ") + components.SeverityBadge(rec.Severity, rec.Diagnosis),
			components.LabelStyle.Render("Stage: ") + components.SeverityBadge(rec.Severity, fmt.Sprintf("Stage %d (%s)", int(rec.Severity), rec.Severity)),
			components.LabelStyle.Render("Confidence: ") + components.ValueStyle.Render(fmt.Sprintf("%.2f%%", rec.Confidence)),
		}
		parts = append(parts, components.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
		if rec.Image != "" {
			parts = append(parts, "", components.LabelStyle.Render("Original Scan"), renderStoredImage(rec.Image))
		}
		if rec.Heatmap != "" {
			parts = append(parts, "", components.LabelStyle.Render("AI Heatmap"), renderStoredImage(rec.Heatmap))
		}
	}

	if s.errMsg != "" {
		parts = append(parts, "", components.ErrorBannerStyle.Render(s.errMsg))
	}
	if s.notice != "" {
		parts = append(parts, "", components.NoticeStyle.Render(s.notice))
	}

	parts = append(parts, "", components.HintStyle.Render("e: Export report | x: Delete | Esc: Back"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderStoredImage draws a record's stored data-URI image as terminal
// cells, falling back to a note when the payload cannot be decoded.
func renderStoredImage(uri string) string {
	img, err := components.DecodeDataURI(uri)
	if err != nil {
		return components.HintStyle.Render("could not render image")
	}
	return components.ImagePreview(img, 40)
}

// Cancelled returns true if the user quit from this screen
func (s *RecordsScreen) Cancelled() bool { return s.cancelled }
