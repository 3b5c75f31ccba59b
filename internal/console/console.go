// Package console prints watcher events to a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"

	"fissure_watcher/internal/model"
	"fissure_watcher/internal/watcher"
)

type styles struct {
	timestamp lipgloss.Style
	added     lipgloss.Style
	quiet     lipgloss.Style
	failure   lipgloss.Style
	header    lipgloss.Style
	hard      lipgloss.Style
	border    lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		added:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		quiet:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		failure:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		hard:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		border:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

// Console is a watcher.Handler writing one status line per event and the
// matching fissures after every change.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles styles
}

// New creates a Console. With color disabled no escape sequences are written.
func New(w io.Writer, color bool) *Console {
	return &Console{w: w, styles: newStyles(color)}
}

// Handle implements watcher.Handler.
func (c *Console) Handle(_ context.Context, ev watcher.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString(c.styles.timestamp.Render("[" + ev.At.Local().Format("15:04:05") + "]"))
	b.WriteByte(' ')

	switch ev.Kind {
	case model.PollFissures:
		b.WriteString(c.styles.added.Render(fmt.Sprintf("%d new fissures", ev.Added)))
		b.WriteByte('\n')
		b.WriteString(c.table(ev.Filtered))
	case model.PollNoChange:
		b.WriteString(c.styles.quiet.Render("No new fissures"))
		b.WriteByte('\n')
	case model.PollError:
		b.WriteString(c.styles.failure.Render("Error: " + ev.Err))
		b.WriteByte('\n')
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}

func (c *Console) table(fissures []model.Fissure) string {
	rows := make([][]string, len(fissures))
	for i, f := range fissures {
		rows[i] = f.TableRow()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderStyle(c.styles.border).
		Headers(model.TableHeaders()...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return c.styles.header.Padding(0, 1)
			case fissures[row].IsHard:
				return c.styles.hard.Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		})
	return t.Render() + "\n"
}
