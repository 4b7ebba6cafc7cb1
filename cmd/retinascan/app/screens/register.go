package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/retinascan/cmd/retinascan/app/components"
)

// RegisterScreen creates an operator account.
type RegisterScreen struct {
	form      *huh.Form
	fullName  string
	email     string
	password  string
	errMsg    string
	done      bool
	cancelled bool
	back      bool
	width     int
	height    int
}

// NewRegisterScreen creates the registration form.
func NewRegisterScreen() *RegisterScreen {
	s := &RegisterScreen{}
	s.buildForm()
	return s
}

func (s *RegisterScreen) buildForm() {
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("full_name").
				Title("Full Name").
				Placeholder("Dr. Jane Doe").
				Value(&s.fullName).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("full name is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("email").
				Title("Email Address").
				Value(&s.email).
				Validate(func(v string) error {
					if !strings.Contains(v, "@") {
						return fmt.Errorf("a valid email address is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&s.password).
				Validate(func(v string) error {
					if len(v) < 6 {
						return fmt.Errorf("password must be at least 6 characters")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)
	s.done = false
}

// SetError shows a failed registration and re-arms the form.
func (s *RegisterScreen) SetError(msg string) {
	s.errMsg = msg
	s.buildForm()
}

// Init implements tea.Model
func (s *RegisterScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *RegisterScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.back = true
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
func (s *RegisterScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("Create Account")

	parts := []string{title}
	if s.errMsg != "" {
		parts = append(parts, components.ErrorBannerStyle.Render(s.errMsg), "")
	}
	parts = append(parts,
		s.form.View(),
		"",
		components.HintStyle.Render("Enter: Sign up | Esc: Back to login"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true once the form was submitted
func (s *RegisterScreen) Done() bool { return s.done }

// Cancelled returns true if the user quit from this screen
func (s *RegisterScreen) Cancelled() bool { return s.cancelled }

// WantsBack returns true if the user asked to return to login
func (s *RegisterScreen) WantsBack() bool { return s.back }

// Details returns the submitted account details
func (s *RegisterScreen) Details() (fullName, email, password string) {
	return strings.TrimSpace(s.fullName), strings.TrimSpace(s.email), s.password
}
