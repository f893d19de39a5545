package cli

import (
	"context"
	"fmt"
	"strings"

	coreapp "xref/internal/core/app"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

type progressMsg coreapp.Progress

// runDoneMsg ends one generation run.
type runDoneMsg struct {
	report *coreapp.Report
	err    error
}

// fatalMsg ends the program.
type fatalMsg struct{ err error }

type model struct {
	bar      progress.Model
	cancel   context.CancelFunc
	watching bool
	verbose  bool

	phase   string
	done    int
	total   int
	current string

	runs   int
	report *coreapp.Report
	err    error
}

func initialModel(cancel context.CancelFunc, watching, verbose bool) model {
	return model{
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		cancel:   cancel,
		watching: watching,
		verbose:  verbose,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 80)
	case progressMsg:
		if msg.Phase != m.phase {
			m.phase = msg.Phase
			m.done = 0
		}
		if msg.Done > m.done {
			m.done = msg.Done
		}
		m.total = msg.Total
		m.current = msg.Path
	case runDoneMsg:
		m.runs++
		m.report = msg.report
		m.err = msg.err
		m.phase = ""
		if !m.watching {
			return m, tea.Quit
		}
	case fatalMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("xref"))
	if m.watching {
		b.WriteString(statusStyle.Render(fmt.Sprintf("  watching, %d runs", m.runs)))
	}
	b.WriteString("\n\n")

	if m.phase != "" {
		percent := 0.0
		if m.total > 0 {
			percent = float64(m.done) / float64(m.total)
		}
		fmt.Fprintf(&b, "%-8s %s %d/%d\n", m.phase, m.bar.ViewAs(percent), m.done, m.total)
		if m.current != "" {
			b.WriteString(statusStyle.Render(m.current))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("run failed: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.report != nil {
		b.WriteString(renderSummary(m.report, m.verbose))
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

// runUI drives a single run or a watch session behind the terminal UI and
// returns the last report.
func runUI(ctx context.Context, generator *coreapp.App, watching bool, configPath string, verbose bool) (*coreapp.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if watching {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(initialModel(cancel, watching, verbose), opts...)

	generator.SetProgressHandler(func(pr coreapp.Progress) {
		p.Send(progressMsg(pr))
	})
	defer generator.SetProgressHandler(nil)

	go func() {
		if !watching {
			report, err := generator.Run(ctx)
			p.Send(runDoneMsg{report: report, err: err})
			return
		}
		err := generator.Watch(ctx, configPath, func(report *coreapp.Report, err error) {
			p.Send(runDoneMsg{report: report, err: err})
		})
		p.Send(fatalMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	m, ok := final.(model)
	if !ok {
		return nil, ctx.Err()
	}
	return m.report, m.err
}
