// Package screens contains the TUI screens of the RetinaScan client.
package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/retinascan/cmd/retinascan/app/components"
)

// LoginScreen collects the operator's credentials.
type LoginScreen struct {
	form      *huh.Form
	email     string
	password  string
	errMsg    string
	notice    string
	done      bool
	cancelled bool
	register  bool
	width     int
	height    int
}

// NewLoginScreen creates the login form. notice is an informational
// line, e.g. after a successful registration.
func NewLoginScreen(notice string) *LoginScreen {
	s := &LoginScreen{notice: notice}
	s.buildForm()
	return s
}

func (s *LoginScreen) buildForm() {
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email Address").
				Value(&s.email).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("email is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&s.password).
				Validate(func(v string) error {
					if v == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)
	s.done = false
}

// SetError shows a failed login and re-arms the form. The password is
// cleared, the email kept.
func (s *LoginScreen) SetError(msg string) {
	s.errMsg = msg
	s.password = ""
	s.buildForm()
}

// Init implements tea.Model
func (s *LoginScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *LoginScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		case "ctrl+r":
			s.register = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *LoginScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("RetinaScan AI")
	subtitle := components.SubtitleStyle.Render("Clinician Portal")

	parts := []string{title, subtitle}
	if s.errMsg != "" {
		parts = append(parts, components.ErrorBannerStyle.Render(s.errMsg), "")
	}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice), "")
	}
	parts = append(parts,
		s.form.View(),
		"",
		components.HintStyle.Render("Enter: Access portal | Ctrl+R: Create an account | Esc: Quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true once credentials were submitted
func (s *LoginScreen) Done() bool { return s.done }

// Cancelled returns true if the user quit from this screen
func (s *LoginScreen) Cancelled() bool { return s.cancelled }

// WantsRegister returns true if the user asked for the register screen
func (s *LoginScreen) WantsRegister() bool { return s.register }

// Credentials returns the submitted email and password
func (s *LoginScreen) Credentials() (email, password string) {
	return strings.TrimSpace(s.email), s.password
}
