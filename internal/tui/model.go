package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"movierag/internal/domain"
)

// Model is a read-only Bubble Tea view over one answered question.
// up/down cycle through the retrieved contexts, q quits.
type Model struct {
	question string
	answer   domain.Answer
	viewport viewport.Model
	cursor   int
	ready    bool
}

// New creates a viewer for the answer to question.
func New(question string, answer *domain.Answer) Model {
	m := Model{question: question, viewport: viewport.New(0, 0)}
	if answer != nil {
		m.answer = *answer
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := contextBoxStyle.GetFrameSize()
		reserved := lipgloss.Height(m.renderHeader()) + 2 // status + spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.viewport.SetContent(m.renderCurrentContext())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		n := len(m.answer.Contexts)
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "down", "j":
			if n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrentContext())
			}
			return m, nil
		case "up", "k":
			if n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrentContext())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the answer, reasoning and the selected context.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	status := statusStyle.Render("up/down: switch context  q: quit")
	return m.renderHeader() + "\n" + contextBoxStyle.Render(m.viewport.View()) + "\n" + status
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("Movie Plot RAG")
	question := mutedStyle.Render("Q: " + m.question)
	body := answerBoxStyle.Render(
		labelStyle.Render("Answer") + "\n" + m.answer.Answer + "\n\n" +
			labelStyle.Render("Reasoning") + "\n" + m.answer.Reasoning)
	return title + "\n" + question + "\n" + body
}

func (m Model) renderCurrentContext() string {
	if len(m.answer.Contexts) == 0 {
		return "No contexts returned."
	}
	title := fmt.Sprintf("Context %d/%d", m.cursor+1, len(m.answer.Contexts))
	body := highlightBestSentence(m.answer.Contexts[m.cursor], m.question)
	return title + "\n\n" + body
}

var (
	answerBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	contextBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	labelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// splitSentences cuts text after each '.', '!' or '?'. Trailing text without
// a closing mark, as left by chunking, is kept as a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
