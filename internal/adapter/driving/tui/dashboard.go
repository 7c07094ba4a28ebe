package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/ciboard/internal/application"
	"github.com/ericfisherdev/ciboard/internal/domain/model"
)

// refreshDoneMsg carries the result of one refresh cycle back into the
// update loop.
type refreshDoneMsg struct {
	dashboard application.Dashboard
	err       error
}

// Model is the bubbletea model for the dashboard UI.
type Model struct {
	svc        *application.PollService
	styles     *StyleConfig
	spinner    spinner.Model
	dashboard  application.Dashboard
	refreshing bool
	err        error
	width      int
}

// NewModel creates the dashboard model. The first refresh starts on Init.
func NewModel(svc *application.PollService) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		svc:        svc,
		styles:     DefaultStyles(),
		spinner:    sp,
		refreshing: true,
	}
}

// Init starts the spinner and the initial refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

// refreshCmd runs one refresh cycle off the update loop.
func (m Model) refreshCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		dashboard, err := svc.Refresh(context.Background())
		return refreshDoneMsg{dashboard: dashboard, err: err}
	}
}

// Update handles key presses, window sizing, spinner ticks, and refresh
// completion.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil && !errors.Is(msg.err, application.ErrRefreshInFlight) {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.dashboard = msg.dashboard

	case spinner.TickMsg:
		if m.refreshing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the summary header, the per-repo category table, and the help
// footer.
func (m Model) View() string {
	var b strings.Builder

	title := "ciboard"
	if m.refreshing {
		title += " " + m.spinner.View()
	}
	b.WriteString(m.styles.TitleStyle().Render(title))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.styles.ConclusionStyle(model.ConclusionFailure).Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	summary := m.dashboard.Summary
	b.WriteString(fmt.Sprintf("pass rate %.1f%%   streak %d   healthy %d/%d\n\n",
		summary.PassRate, summary.SuccessStreak, summary.HealthyRepos, len(m.dashboard.Repos)))

	b.WriteString(m.renderRepoTable())

	b.WriteString("\n")
	b.WriteString(m.styles.HelpStyle().Render("r refresh · q quit"))
	b.WriteString("\n")

	return b.String()
}

// renderRepoTable renders one row per repository with a glyph per category.
func (m Model) renderRepoTable() string {
	repos := make([]string, 0, len(m.dashboard.Repos))
	nameWidth := len("repository")
	for repo := range m.dashboard.Repos {
		repos = append(repos, repo)
		if len(repo) > nameWidth {
			nameWidth = len(repo)
		}
	}
	sort.Strings(repos)

	var b strings.Builder
	b.WriteString(m.styles.HeaderStyle().Render(
		fmt.Sprintf("%-*s  %-8s %-8s %-8s %-8s %s", nameWidth, "repository", "lint", "test", "security", "release", "source")))
	b.WriteString("\n")

	for _, repo := range repos {
		snap := m.dashboard.Repos[repo]

		b.WriteString(fmt.Sprintf("%-*s  ", nameWidth, repo))
		for _, category := range model.Categories {
			b.WriteString(m.renderCategoryCell(snap, category))
		}

		source := string(snap.Source)
		if snap.HasError() {
			source = "error"
		}
		b.WriteString(m.styles.HelpStyle().Render(source))
		b.WriteString("\n")
	}

	return b.String()
}

// renderCategoryCell renders one fixed-width glyph cell for a bucket.
func (m Model) renderCategoryCell(snap model.RepoSnapshot, category model.Category) string {
	conclusion := model.ConclusionUnknown
	if bucket, ok := snap.Categories[category]; ok && bucket != nil {
		conclusion = bucket.Conclusion
	}

	cell := m.styles.ConclusionStyle(conclusion).Render(glyphFor(conclusion))
	return cell + strings.Repeat(" ", 8)
}
