package portal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/link"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4") // Purple - title, focused field
	mutedColor   = lipgloss.Color("#626262") // Gray - labels, help line
	errorColor   = lipgloss.Color("#FF5555") // Red - validation errors
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(18)

	focusedLabelStyle = labelStyle.
				Foreground(primaryColor).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// Field indexes, in presentation order.
const (
	fieldEndpoint = iota
	fieldToken
	fieldSSID
	fieldPassphrase
	fieldEAPIdentity
	fieldEAPSecret
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Endpoint URL",
	"Auth token",
	"Network SSID",
	"Passphrase",
	"802.1X identity",
	"802.1X secret",
}

// Submission is a completed form.
type Submission struct {
	Record      config.ConfigRecord
	Credentials link.Credentials
}

// formModel drives the reconfiguration form.
type formModel struct {
	inputs  [fieldCount]textinput.Model
	focused int

	errMsg    string
	submitted bool
	result    Submission
}

// newFormModel builds the form prefilled from the current record and
// network credentials.
func newFormModel(rec config.ConfigRecord, creds link.Credentials) formModel {
	var m formModel
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		m.inputs[i] = in
	}

	m.inputs[fieldEndpoint].SetValue(rec.EndpointURL)
	m.inputs[fieldEndpoint].Placeholder = "wss://svc.example/control"
	m.inputs[fieldToken].SetValue(rec.AuthToken)
	m.inputs[fieldToken].EchoMode = textinput.EchoPassword
	m.inputs[fieldSSID].SetValue(creds.SSID)
	m.inputs[fieldPassphrase].SetValue(creds.Passphrase)
	m.inputs[fieldPassphrase].EchoMode = textinput.EchoPassword
	m.inputs[fieldEAPIdentity].SetValue(rec.EAPIdentity)
	m.inputs[fieldEAPSecret].SetValue(rec.EAPPassword)
	m.inputs[fieldEAPSecret].EchoMode = textinput.EchoPassword

	m.inputs[fieldEndpoint].Focus()
	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if m.focused == fieldCount-1 {
				return m.submit()
			}
			return m.focusField(m.focused + 1), nil

		case "tab", "down":
			return m.focusField((m.focused + 1) % fieldCount), nil

		case "shift+tab", "up":
			return m.focusField((m.focused + fieldCount - 1) % fieldCount), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m formModel) focusField(i int) formModel {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
	return m
}

// submit validates the form. The record must parse as a saved record would;
// validation failures keep the form open with the reason shown.
func (m formModel) submit() (tea.Model, tea.Cmd) {
	rec := config.ConfigRecord{
		EndpointURL: strings.TrimSpace(m.inputs[fieldEndpoint].Value()),
		AuthToken:   strings.TrimSpace(m.inputs[fieldToken].Value()),
		EAPIdentity: strings.TrimSpace(m.inputs[fieldEAPIdentity].Value()),
		EAPPassword: m.inputs[fieldEAPSecret].Value(),
	}
	if rec.EndpointURL == "" || rec.AuthToken == "" {
		m.errMsg = "endpoint URL and auth token are required"
		return m.focusField(fieldEndpoint), nil
	}

	m.result = Submission{
		Record: rec,
		Credentials: link.Credentials{
			SSID:       strings.TrimSpace(m.inputs[fieldSSID].Value()),
			Passphrase: m.inputs[fieldPassphrase].Value(),
		},
	}
	m.submitted = true
	m.errMsg = ""
	return m, tea.Quit
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("RELAYLINK RECONFIGURATION"))
	b.WriteString("\n")

	for i, in := range m.inputs {
		label := labelStyle
		if i == m.focused {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(" ")
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab/arrows move · enter on last field submits · esc cancels"))
	b.WriteString("\n")
	return b.String()
}
