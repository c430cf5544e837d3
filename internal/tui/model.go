// Package tui provides the interactive terminal front end for the demo.
// It renders tracker snapshots and the output gallery; all generation
// work happens in the job service, never in the UI loop.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grant-king/stability-demo/internal/job"
	"github.com/grant-king/stability-demo/internal/stability"
	"github.com/grant-king/stability-demo/internal/storage"
)

const galleryLimit = 10

type focusField int

const (
	focusPrompt focusField = iota
	focusImagePath
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

type galleryMsg struct {
	files []string
	err   error
}

type videoSubmittedMsg struct {
	tracker *job.Tracker
	err     error
}

type imageGeneratedMsg struct {
	path string
	err  error
}

type pollTickMsg struct{}

// Model is the bubbletea model for the demo UI.
type Model struct {
	service *job.Service
	store   storage.Store

	prompt    textinput.Model
	imagePath textinput.Model
	focus     focusField

	current    *job.Tracker
	statusText string
	gallery    []string
	lastImage  string
	err        error

	width    int
	busy     bool
	quitting bool
}

// New creates the UI model around the job service and artifact store.
func New(service *job.Service, store storage.Store) Model {
	prompt := textinput.New()
	prompt.Placeholder = "describe the image to generate"
	prompt.CharLimit = 500
	prompt.Focus()

	imagePath := textinput.New()
	imagePath.Placeholder = "path to an input image (empty uses the latest generated image)"
	imagePath.CharLimit = 500

	return Model{
		service:    service,
		store:      store,
		prompt:     prompt,
		imagePath:  imagePath,
		focus:      focusPrompt,
		statusText: "Ready",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadGalleryCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "shift+tab":
			m = m.toggleFocus()
			return m, nil
		case "enter":
			return m.handleSubmit()
		}

	case galleryMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.gallery = msg.files
		return m, nil

	case videoSubmittedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.statusText = "Submission failed"
			return m, nil
		}
		m.current = msg.tracker
		m = m.refreshStatus()
		if m.current.IsTerminal() {
			return m, m.loadGalleryCmd()
		}
		return m, pollTickCmd()

	case imageGeneratedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.statusText = "Image generation failed"
			return m, nil
		}
		m.lastImage = msg.path
		m.statusText = fmt.Sprintf("Image saved to %s", msg.path)
		return m, nil

	case pollTickMsg:
		if m.current == nil {
			return m, nil
		}
		m = m.refreshStatus()
		if m.current.IsTerminal() {
			return m, m.loadGalleryCmd()
		}
		return m, pollTickCmd()
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case focusImagePath:
		m.imagePath, cmd = m.imagePath.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Stability Demo"))
	b.WriteString("\n\n")

	b.WriteString(m.renderField("Prompt", m.prompt.View(), m.focus == focusPrompt))
	b.WriteString(m.renderField("Image path", m.imagePath.View(), m.focus == focusImagePath))
	b.WriteString(mutedStyle.Render("tab: switch field • enter: generate (prompt makes an image, image path makes a video) • esc: quit"))
	b.WriteString("\n\n")

	status := m.statusText
	if m.busy {
		status += " ..."
	}
	b.WriteString(panelStyle.Render("Status  " + status))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if m.current != nil {
		b.WriteString(m.renderTracker())
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Generation History"))
	b.WriteString("\n")
	if len(m.gallery) == 0 {
		b.WriteString(mutedStyle.Render("no videos yet"))
		b.WriteString("\n")
	}
	for i, path := range m.gallery {
		if i >= galleryLimit {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("… and %d more", len(m.gallery)-galleryLimit)))
			b.WriteString("\n")
			break
		}
		b.WriteString(fmt.Sprintf("%2d. %s\n", i+1, filepath.Base(path)))
	}

	return b.String()
}

func (m Model) renderField(label, field string, active bool) string {
	rendered := label
	if active {
		rendered = activeStyle.Render(label)
	}
	return rendered + "\n" + field + "\n"
}

// renderTracker shows the current generation's snapshot: state, remote
// ID, and the artifact (real file or placeholder) acting as the preview.
func (m Model) renderTracker() string {
	snap := m.current.Clone()

	var lines []string
	switch snap.Status {
	case job.StatusSucceeded:
		lines = append(lines, okStyle.Render("SUCCEEDED"))
	case job.StatusFailed:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("FAILED (%s)", snap.ErrorKind)))
		for _, msg := range snap.ErrorMessages {
			lines = append(lines, errorStyle.Render("  "+msg))
		}
	default:
		lines = append(lines, string(snap.Status))
	}
	if snap.GenerationID != "" {
		lines = append(lines, mutedStyle.Render("generation "+snap.GenerationID))
	}
	if snap.PollCount > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("checks: %d, last at %s",
			snap.PollCount, snap.LastPollTime.Format("15:04:05"))))
	}
	lines = append(lines, "preview: "+snap.ArtifactPath)
	if snap.ArtifactURL != "" {
		lines = append(lines, "url: "+snap.ArtifactURL)
	}

	return panelStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) toggleFocus() Model {
	if m.focus == focusPrompt {
		m.focus = focusImagePath
		m.prompt.Blur()
		m.imagePath.Focus()
	} else {
		m.focus = focusPrompt
		m.imagePath.Blur()
		m.prompt.Focus()
	}
	return m
}

// handleSubmit starts the generation matching the focused field.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.err = nil

	switch m.focus {
	case focusPrompt:
		prompt := strings.TrimSpace(m.prompt.Value())
		if prompt == "" {
			m.err = fmt.Errorf("enter a prompt first")
			return m, nil
		}
		m.busy = true
		m.statusText = "Generating image"
		return m, m.generateImageCmd(prompt)
	default:
		m.busy = true
		m.statusText = "Submitting video generation"
		return m, m.submitVideoCmd(strings.TrimSpace(m.imagePath.Value()))
	}
}

// refreshStatus re-reads the live tracker and updates the status line.
func (m Model) refreshStatus() Model {
	snap := m.current.Clone()
	switch snap.Status {
	case job.StatusProcessing:
		m.statusText = fmt.Sprintf("Processing generation %s", snap.GenerationID)
	case job.StatusSucceeded:
		m.statusText = fmt.Sprintf("Video saved to %s", snap.ArtifactPath)
	case job.StatusFailed:
		m.statusText = "Generation failed"
	default:
		m.statusText = "Submitted"
	}
	return m
}

func (m Model) loadGalleryCmd() tea.Cmd {
	return func() tea.Msg {
		files, err := m.store.ListVideos(context.Background())
		return galleryMsg{files: files, err: err}
	}
}

func (m Model) submitVideoCmd(imagePath string) tea.Cmd {
	return func() tea.Msg {
		tracker, err := m.service.Submit(context.Background(), imagePath)
		return videoSubmittedMsg{tracker: tracker, err: err}
	}
}

func (m Model) generateImageCmd(prompt string) tea.Cmd {
	return func() tea.Msg {
		path, err := m.service.GenerateImage(context.Background(), prompt, stability.DefaultImageOptions())
		return imageGeneratedMsg{path: path, err: err}
	}
}

// pollTickCmd refreshes the tracker panel while polling is in flight.
func pollTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}
