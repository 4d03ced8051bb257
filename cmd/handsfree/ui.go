package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/domain/repositories"
	"github.com/studyai/handsfree/internal/session"
)

// theme colors
var (
	accentColor = lipgloss.Color("#00ff9f")
	modelColor  = lipgloss.Color("#7aa2f7")
	dimColor    = lipgloss.Color("#6e7681")
	errorColor  = lipgloss.Color("#f7768e")
)

// display renders session activity to the terminal
type display struct {
	mu sync.Mutex

	userStyle   lipgloss.Style
	modelStyle  lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
	sourceStyle lipgloss.Style

	prevUser  string
	prevModel string
	speaker   session.SpeakerState
}

func newDisplay() *display {
	return &display{
		userStyle:   lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		modelStyle:  lipgloss.NewStyle().Bold(true).Foreground(modelColor),
		statusStyle: lipgloss.NewStyle().Foreground(dimColor),
		errorStyle:  lipgloss.NewStyle().Bold(true).Foreground(errorColor),
		sourceStyle: lipgloss.NewStyle().Foreground(dimColor).Italic(true),
	}
}

// Status prints the one-line session status
func (d *display) Status(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	style := d.statusStyle
	if strings.HasPrefix(status, "Error: ") {
		style = d.errorStyle
	}
	fmt.Println(style.Render("* " + status))
}

// Transcript prints finalized utterances. Partial lines are held back until
// their turn completes, so the terminal log stays append-only. A buffer that
// just became empty marks the completion of the utterance it held.
func (d *display) Transcript(snapshot session.TranscriptSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if snapshot.User == "" {
		if text := strings.TrimSpace(d.prevUser); text != "" {
			fmt.Println(d.userStyle.Render("You:") + " " + text)
		}
	}
	if snapshot.Model == "" {
		if text := strings.TrimSpace(d.prevModel); text != "" {
			fmt.Println(d.modelStyle.Render(entities.AssistantName+":") + " " + text)
		}
	}
	d.prevUser = snapshot.User
	d.prevModel = snapshot.Model
}

// Speaker prints speaker transitions from the activity monitor
func (d *display) Speaker(sample session.MonitorSample) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sample.State == d.speaker {
		return
	}
	d.speaker = sample.State

	switch sample.State {
	case session.SpeakerUser:
		fmt.Println(d.statusStyle.Render("  (listening)"))
	case session.SpeakerModel:
		fmt.Println(d.statusStyle.Render("  (speaking)"))
	}
}

// Answer prints a one-shot text answer with its citation sources
func (d *display) Answer(result *repositories.TextResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Println(d.modelStyle.Render(entities.AssistantName+":") + " " + result.Text)
	for _, source := range result.Sources {
		label := source.Title
		if label == "" {
			label = source.URI
		}
		fmt.Println(d.sourceStyle.Render("  [" + label + "] " + source.URI))
	}
}
