// Package app orchestrates the RetinaScan TUI: login, registration and
// the two clinical workspaces.
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mrsinham/retinascan/cmd/retinascan/app/screens"
	"github.com/mrsinham/retinascan/internal/api"
	"github.com/mrsinham/retinascan/internal/model"
	"github.com/mrsinham/retinascan/internal/records"
	"github.com/mrsinham/retinascan/internal/session"
)

const authTimeout = 30 * time.Second

// Phase represents the current phase/screen of the app.
type Phase int

const (
	PhaseLogin Phase = iota
	PhaseRegister
	PhaseScan
	PhaseRecords
)

// Options wires the app to its collaborators.
type Options struct {
	Client    *api.Client
	Sessions  session.Repository
	ReportDir string
	Log       zerolog.Logger
}

// loginDoneMsg reports the outcome of a login request.
type loginDoneMsg struct {
	user *model.User
	err  error
}

// registerDoneMsg reports the outcome of a registration request.
type registerDoneMsg struct {
	err error
}

// App is the main orchestrator for the client interface.
type App struct {
	opts  Options
	store *records.Store
	mgr   *records.Manager

	// Current phase
	phase Phase

	// Screen instances
	loginScreen    *screens.LoginScreen
	registerScreen *screens.RegisterScreen
	scanScreen     *screens.ScanScreen
	recordsScreen  *screens.RecordsScreen

	// Authenticated operator
	user *model.User

	// Auth request in flight
	authBusy bool

	// Window size
	width  int
	height int

	// Final state
	cancelled bool
	err       error
}

// NewApp creates the app. A valid stored session skips the login phase.
func NewApp(opts Options) *App {
	store := records.NewStore(opts.Client, opts.Log)

	a := &App{
		opts:  opts,
		store: store,
		mgr:   records.NewManager(opts.Client, store, opts.Log),
		phase: PhaseLogin,
	}

	if user, err := opts.Sessions.Get(); err == nil && user != nil {
		a.user = user
		a.phase = PhaseScan
		a.scanScreen = screens.NewScanScreen(opts.Client, opts.Log)
		opts.Log.Info().Str("email", user.Email).Msg("session restored")
		return a
	}

	a.loginScreen = screens.NewLoginScreen("")
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.phase == PhaseScan {
		return a.scanScreen.Init()
	}
	return a.loginScreen.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window size for all phases
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	// Navigation requests from any workspace
	switch msg.(type) {
	case screens.GotoScanMsg:
		return a.transitionToScan()
	case screens.GotoRecordsMsg:
		return a.transitionToRecords()
	case screens.LogoutMsg:
		return a.logout()
	}

	switch a.phase {
	case PhaseLogin:
		return a.updateLogin(msg)
	case PhaseRegister:
		return a.updateRegister(msg)
	case PhaseScan:
		return a.updateScan(msg)
	case PhaseRecords:
		return a.updateRecords(msg)
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.phase {
	case PhaseLogin:
		return a.loginScreen.View()
	case PhaseRegister:
		return a.registerScreen.View()
	case PhaseScan:
		return a.scanScreen.View()
	case PhaseRecords:
		return a.recordsScreen.View()
	}

	return ""
}

// updateLogin handles updates in the login phase.
func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(loginDoneMsg); ok {
		a.authBusy = false
		if m.err != nil {
			a.loginScreen.SetError(api.UserMessage(m.err))
			return a, a.loginScreen.Init()
		}
		a.user = m.user
		if err := a.opts.Sessions.Set(m.user); err != nil {
			a.opts.Log.Warn().Err(err).Msg("session not persisted")
		}
		a.opts.Log.Info().Str("email", m.user.Email).Msg("logged in")
		return a.transitionToScan()
	}

	if a.authBusy {
		return a, nil
	}

	model, cmd := a.loginScreen.Update(msg)
	if ls, ok := model.(*screens.LoginScreen); ok {
		a.loginScreen = ls
	}

	if a.loginScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	if a.loginScreen.WantsRegister() {
		a.phase = PhaseRegister
		a.registerScreen = screens.NewRegisterScreen()
		return a, a.registerScreen.Init()
	}

	if a.loginScreen.Done() {
		email, password := a.loginScreen.Credentials()
		a.authBusy = true
		client := a.opts.Client
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
			defer cancel()
			user, err := client.Login(ctx, email, password)
			return loginDoneMsg{user: user, err: err}
		}
	}

	return a, cmd
}

// updateRegister handles updates in the registration phase.
func (a *App) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(registerDoneMsg); ok {
		a.authBusy = false
		if m.err != nil {
			a.registerScreen.SetError(api.UserMessage(m.err))
			return a, a.registerScreen.Init()
		}
		a.phase = PhaseLogin
		a.loginScreen = screens.NewLoginScreen("Account created. Please sign in.")
		return a, a.loginScreen.Init()
	}

	if a.authBusy {
		return a, nil
	}

	model, cmd := a.registerScreen.Update(msg)
	if rs, ok := model.(*screens.RegisterScreen); ok {
		a.registerScreen = rs
	}

	if a.registerScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	if a.registerScreen.WantsBack() {
		a.phase = PhaseLogin
		a.loginScreen = screens.NewLoginScreen("")
		return a, a.loginScreen.Init()
	}

	if a.registerScreen.Done() {
		fullName, email, password := a.registerScreen.Details()
		a.authBusy = true
		client := a.opts.Client
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
			defer cancel()
			return registerDoneMsg{err: client.Register(ctx, email, password, fullName)}
		}
	}

	return a, cmd
}

// updateScan handles updates in the scan workspace.
func (a *App) updateScan(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.scanScreen.Update(msg)
	if ss, ok := model.(*screens.ScanScreen); ok {
		a.scanScreen = ss
	}

	if a.scanScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	return a, cmd
}

// updateRecords handles updates in the records workspace.
func (a *App) updateRecords(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.recordsScreen.Update(msg)
	if rs, ok := model.(*screens.RecordsScreen); ok {
		a.recordsScreen = rs
	}

	if a.recordsScreen.Cancelled() {
		a.cancelled = true
		return a, tea.Quit
	}

	return a, cmd
}

// transitionToScan shows the scan workspace, keeping any in-progress
// form state.
func (a *App) transitionToScan() (tea.Model, tea.Cmd) {
	a.phase = PhaseScan
	if a.scanScreen == nil {
		a.scanScreen = screens.NewScanScreen(a.opts.Client, a.opts.Log)
	}
	return a, a.scanScreen.Init()
}

// transitionToRecords shows the records workspace. The screen is
// recreated each time so the list is re-fetched on entry.
func (a *App) transitionToRecords() (tea.Model, tea.Cmd) {
	a.phase = PhaseRecords
	a.recordsScreen = screens.NewRecordsScreen(a.opts.Client, a.store, a.mgr, a.opts.ReportDir, a.opts.Log)
	return a, a.recordsScreen.Init()
}

// logout clears the stored session and returns to the login screen.
func (a *App) logout() (tea.Model, tea.Cmd) {
	if err := a.opts.Sessions.Clear(); err != nil {
		a.opts.Log.Warn().Err(err).Msg("session not cleared")
	}
	a.user = nil
	a.scanScreen = nil
	a.recordsScreen = nil
	a.phase = PhaseLogin
	a.loginScreen = screens.NewLoginScreen("")
	return a, a.loginScreen.Init()
}

// Run starts the interactive client.
func Run(opts Options) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running app: %w", err)
	}

	if a, ok := finalModel.(*App); ok {
		if a.cancelled {
			return nil // User quit, not an error
		}
		if a.err != nil {
			return a.err
		}
	}

	return nil
}
