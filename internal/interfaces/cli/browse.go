package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"genv.tools/cli/internal/core/resolve"
)

// NewBrowseCommand creates the browse command
func NewBrowseCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive browser for the resolved configuration",
		Long: `Launch an interactive terminal browser over the resolved snapshot.

Each row shows a key, its effective value, and the layer it came from.
The detail pane shows the selected key's type, default, and allowed values.

Controls: [up/down] navigate, [r] re-resolve, [q] quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, container)
		},
	}
}

// runBrowse starts the terminal browser
func runBrowse(cmd *cobra.Command, container *CLIContainer) error {
	snapshot, err := container.EnvService.Inspect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}

	model := newBrowseModel(container, snapshot)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}

// browseModel holds the state for the Bubble Tea browser
type browseModel struct {
	container    *CLIContainer
	rows         []resolve.Resolution
	selectedRow  int
	windowWidth  int
	windowHeight int
	err          error
}

type snapshotLoadedMsg struct {
	rows []resolve.Resolution
}

type browseErrMsg struct {
	err error
}

func newBrowseModel(container *CLIContainer, rows []resolve.Resolution) browseModel {
	return browseModel{container: container, rows: rows}
}

// Init implements the Bubble Tea init method
func (m browseModel) Init() tea.Cmd {
	return nil
}

// Update implements the Bubble Tea update method
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			return m, nil

		case "down", "j":
			if m.selectedRow < len(m.rows)-1 {
				m.selectedRow++
			}
			return m, nil

		case "r":
			return m, m.reloadCmd()
		}

	case snapshotLoadedMsg:
		m.rows = msg.rows
		if m.selectedRow >= len(m.rows) {
			m.selectedRow = len(m.rows) - 1
		}
		return m, nil

	case browseErrMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// reloadCmd re-resolves the snapshot against the current store contents.
func (m browseModel) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.container.EnvService.Inspect(context.Background())
		if err != nil {
			return browseErrMsg{err: err}
		}
		return snapshotLoadedMsg{rows: rows}
	}
}

// View implements the Bubble Tea view method
func (m browseModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit", m.err)
	}

	header := m.renderHeader()
	table := m.renderTable()
	detail := m.renderDetail()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, table, detail, footer)
}

// renderHeader renders the browser header
func (m browseModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("genv browser")

	info := fmt.Sprintf("  %s | %d keys", m.container.EnvService.StorePath(), len(m.rows))

	return lipgloss.JoinHorizontal(lipgloss.Left, title, info)
}

// renderTable renders the key table
func (m browseModel) renderTable() string {
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("\n  No keys registered.\n")
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render(fmt.Sprintf("%-14s │ %-10s │ %s", "KEY", "ORIGIN", "VALUE"))

	rows := []string{header}

	maxRows := m.windowHeight - 10
	if maxRows < 1 {
		maxRows = len(m.rows)
	}
	start := 0
	if m.selectedRow >= maxRows {
		start = m.selectedRow - maxRows + 1
	}

	for i := start; i < len(m.rows) && i < start+maxRows; i++ {
		res := m.rows[i]

		rowStyle := lipgloss.NewStyle()
		if i == m.selectedRow {
			rowStyle = rowStyle.Background(lipgloss.Color("240"))
		}

		row := fmt.Sprintf("%-14s │ %-10s │ %s",
			res.Key.Name(),
			res.Origin.String(),
			truncateString(res.Value, 50),
		)
		rows = append(rows, rowStyle.Render(row))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderDetail renders schema information for the selected key
func (m browseModel) renderDetail() string {
	if len(m.rows) == 0 || m.selectedRow >= len(m.rows) {
		return ""
	}
	res := m.rows[m.selectedRow]

	detail := fmt.Sprintf("type: %s | default: %q", res.Key.Kind().String(), res.Key.Default())
	if enum := res.Key.Enum(); enum != nil {
		detail += fmt.Sprintf(" | allowed: %v", enum)
	}
	if res.Key.IsComputed() {
		detail += " | toolchain-managed (read-only)"
	}
	if err := res.Key.Validate(res.Value); err != nil {
		detail += lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf(" | INVALID: %v", err))
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render(detail)
}

// renderFooter renders the control instructions footer
func (m browseModel) renderFooter() string {
	controls := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render("Controls: [↑↓] Navigate | [r] Re-resolve | [q] Quit")

	return controls
}

// truncateString shortens a string for single-line table display
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
