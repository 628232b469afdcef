// Package review is the human approval gate: it presents the drafted
// message and answers as editable fields and returns exactly one of two
// outcomes, approve (committing the edits) or cancel.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"applypilot/internal/controller"
	"applypilot/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	requiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	frozenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// TUIReviewer runs a terminal form for the approval decision.
type TUIReviewer struct{}

// NewTUIReviewer creates the terminal reviewer.
func NewTUIReviewer() *TUIReviewer { return &TUIReviewer{} }

// Review blocks until the human approves or cancels.
func (r *TUIReviewer) Review(ctx context.Context, session *domain.Session) (controller.ReviewResult, error) {
	m := newModel(session)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return controller.ReviewResult{}, fmt.Errorf("review ui: %w", err)
	}
	fm, ok := final.(model)
	if !ok {
		return controller.ReviewResult{}, fmt.Errorf("review ui returned unexpected model")
	}
	return fm.result(), nil
}

// answerField is one editable question row.
type answerField struct {
	question *domain.Question
	input    textinput.Model
}

type model struct {
	session *domain.Session
	header  string

	message textarea.Model
	answers []answerField

	// focus index: 0 is the message, 1..n are answers.
	focus    int
	approved bool
}

func newModel(session *domain.Session) model {
	msg := textarea.New()
	msg.SetValue(session.Message)
	msg.SetHeight(6)
	msg.CharLimit = 0
	msg.Focus()

	var answers []answerField
	for _, q := range session.Questions {
		if q.IsPreFilled {
			continue
		}
		in := textinput.New()
		in.SetValue(q.Answer)
		in.CharLimit = q.MaxLength
		answers = append(answers, answerField{question: q, input: in})
	}

	return model{
		session: session,
		header:  renderHeader(session),
		message: msg,
		answers: answers,
	}
}

// renderHeader builds the read-only context block: job, skills, confidence.
func renderHeader(session *domain.Session) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s — %s\n\n", session.JobTitle, session.Company)
	fmt.Fprintf(&md, "**Confidence:** %d/100\n\n", session.ConfidenceScore)
	if len(session.MatchingSkills) > 0 {
		fmt.Fprintf(&md, "**Matching skills:** %s\n\n", strings.Join(session.MatchingSkills, ", "))
	}
	if len(session.AddressedRequirements) > 0 {
		md.WriteString("**Addresses:**\n")
		for _, r := range session.AddressedRequirements {
			fmt.Fprintf(&md, "- %s\n", r)
		}
	}

	out, err := glamour.Render(md.String(), "dark")
	if err != nil {
		return md.String()
	}
	return out
}

func (m model) Init() tea.Cmd { return textarea.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.approved = false
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.approved = true
			return m, tea.Quit
		case tea.KeyTab:
			m.setFocus(m.focus + 1)
			return m, nil
		case tea.KeyShiftTab:
			m.setFocus(m.focus - 1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.message, cmd = m.message.Update(msg)
	} else if i := m.focus - 1; i >= 0 && i < len(m.answers) {
		m.answers[i].input, cmd = m.answers[i].input.Update(msg)
	}
	return m, cmd
}

func (m *model) setFocus(next int) {
	total := 1 + len(m.answers)
	m.focus = ((next % total) + total) % total

	m.message.Blur()
	for i := range m.answers {
		m.answers[i].input.Blur()
	}
	if m.focus == 0 {
		m.message.Focus()
	} else {
		m.answers[m.focus-1].input.Focus()
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.header)
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Application message"))
	b.WriteString("\n")
	b.WriteString(m.message.View())
	b.WriteString("\n\n")

	for i, f := range m.answers {
		label := f.question.Text
		if f.question.Required {
			label += requiredStyle.Render(" *")
		}
		style := labelStyle
		if m.focus == i+1 {
			style = focusedStyle
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
		b.WriteString(f.input.View())
		b.WriteString("\n")
	}

	for _, q := range m.session.Questions {
		if q.IsPreFilled {
			b.WriteString(frozenStyle.Render(fmt.Sprintf("%s — pre-filled: %s", q.Text, q.PreFilledValue)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: next field • ctrl+s: approve and submit • esc: cancel"))
	return b.String()
}

// result snapshots the decision and edits for the controller to commit.
func (m model) result() controller.ReviewResult {
	res := controller.ReviewResult{
		Approved: m.approved,
		Message:  m.message.Value(),
		Answers:  make(map[string]string, len(m.answers)),
	}
	for _, f := range m.answers {
		res.Answers[f.question.ID] = f.input.Value()
	}
	return res
}
