// Package tui renders the dashboard as a terminal UI. It is a thin consumer
// of the same pipeline that feeds the JSON API.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// StyleConfig holds the customizable style palette for the dashboard UI.
type StyleConfig struct {
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	Success       lipgloss.Color
	Failure       lipgloss.Color
	Pending       lipgloss.Color
	Muted         lipgloss.Color
	Accent        lipgloss.Color
}

// DefaultStyles returns the default color palette.
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		Success:       lipgloss.Color("#34A853"),
		Failure:       lipgloss.Color("#EA4335"),
		Pending:       lipgloss.Color("#FBBC04"),
		Muted:         lipgloss.Color("#5F6368"),
		Accent:        lipgloss.Color("#8AB4F8"),
	}
}

// TitleStyle returns the dashboard title style.
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.Accent).
		Bold(true).
		Padding(0, 1)
}

// HeaderStyle returns the table header style.
func (s *StyleConfig) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Bold(true)
}

// HelpStyle returns the footer help text style.
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 1)
}

// ConclusionStyle returns the style for rendering a conclusion value.
func (s *StyleConfig) ConclusionStyle(c model.Conclusion) lipgloss.Style {
	var color lipgloss.Color
	switch c {
	case model.ConclusionSuccess:
		color = s.Success
	case model.ConclusionFailure, model.ConclusionCancelled:
		color = s.Failure
	case model.ConclusionInProgress:
		color = s.Pending
	default:
		color = s.Muted
	}
	return lipgloss.NewStyle().Foreground(color)
}

// glyphFor maps a conclusion to its single-character status glyph.
func glyphFor(c model.Conclusion) string {
	switch c {
	case model.ConclusionSuccess:
		return "✓"
	case model.ConclusionFailure, model.ConclusionCancelled:
		return "✗"
	case model.ConclusionInProgress:
		return "●"
	case model.ConclusionSkipped:
		return "-"
	default:
		return "?"
	}
}
