package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/spf13/cobra"

	"sigmaker/internal/builder"
	"sigmaker/internal/config"
	"sigmaker/internal/image"
	"sigmaker/internal/sig"
	"sigmaker/internal/sigmaker/styles"
	"sigmaker/internal/ui/colorize"
)

type tuiAction int

const (
	actionUnique tuiAction = iota
	actionXref
)

type tuiModel struct {
	viewport viewport.Model
	spinner  spinner.Model

	img     *image.Image
	builder *builder.Builder
	anchor  uint64
	cfg     config.Config

	action   tuiAction
	format   sig.Format
	wildcard bool
	building bool
	status   string

	unique  sig.Signature
	ranked  []builder.XrefSignature
	disasm  []string
	buildID int

	width  int
	height int
}

type uniqueBuiltMsg struct {
	id  int
	sig sig.Signature
	err error
}

type xrefsRankedMsg struct {
	id      int
	results []builder.XrefSignature
	err     error
}

func newTUIModel(img *image.Image, b *builder.Builder, anchor uint64, cfg config.Config, format sig.Format) tuiModel {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Malibu.Hex()))

	return tuiModel{
		viewport: vp,
		spinner:  s,
		img:      img,
		builder:  b,
		anchor:   anchor,
		cfg:      cfg,
		action:   actionUnique,
		disasm:   disasmContext(img, anchor, 12),
		format:   format,
		wildcard: cfg.WildcardOperands,
		building: true,
		width:    80,
		height:   24,
	}
}

func (m tuiModel) buildCmd() tea.Cmd {
	b, anchor, id := m.builder, m.anchor, m.buildID
	opt := builder.Options{
		WildcardOperands:        m.wildcard,
		ContinueOutsideFunction: m.cfg.ContinueOutsideFunction,
		MaxLength:               m.cfg.MaxLength,
	}
	if m.action == actionXref {
		opt.MaxLength = m.cfg.XrefCapLength
		return func() tea.Msg {
			results, err := b.RankXrefs(context.Background(), anchor, opt)
			return xrefsRankedMsg{id: id, results: results, err: err}
		}
	}
	return func() tea.Msg {
		s, err := b.GrowUnique(context.Background(), anchor, opt)
		return uniqueBuiltMsg{id: id, sig: s, err: err}
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.buildCmd(), m.spinner.Tick)
}

// rebuild bumps the build id so results from a superseded build are dropped.
func (m *tuiModel) rebuild() tea.Cmd {
	m.buildID++
	m.building = true
	m.status = ""
	return tea.Batch(m.buildCmd(), m.spinner.Tick)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case uniqueBuiltMsg:
		if msg.id != m.buildID {
			return m, nil
		}
		m.building = false
		if msg.err != nil {
			m.status = describeBuildError(msg.err, m.format).Error()
		} else {
			m.unique = msg.sig
		}
		m.updateContent()
		return m, nil

	case xrefsRankedMsg:
		if msg.id != m.buildID {
			return m, nil
		}
		m.building = false
		if msg.err != nil {
			m.status = describeBuildError(msg.err, m.format).Error()
		} else if len(msg.results) == 0 {
			m.status = "no usable cross-references"
		} else {
			m.ranked = msg.results
		}
		m.updateContent()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.building {
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.img.Close()
			return m, tea.Quit
		case "f", "tab":
			m.format = (m.format + 1) % 4
			m.updateContent()
			return m, nil
		case "w":
			m.wildcard = !m.wildcard
			m.unique = nil
			m.ranked = nil
			return m, m.rebuild()
		case "u":
			if m.action != actionUnique {
				m.action = actionUnique
				if m.unique == nil {
					return m, m.rebuild()
				}
				m.updateContent()
			}
			return m, nil
		case "x":
			if m.action != actionXref {
				m.action = actionXref
				if m.ranked == nil {
					return m, m.rebuild()
				}
				m.updateContent()
			}
			return m, nil
		case "c":
			if s, ok := m.primary(); ok {
				if err := printSignatureToClipboard(s, m.format); err != nil {
					m.status = fmt.Sprintf("clipboard: %v", err)
				} else {
					m.status = "copied to clipboard"
				}
				m.updateContent()
			}
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// primary is the signature a copy acts on: the unique one, or the shortest
// ranked xref signature.
func (m tuiModel) primary() (sig.Signature, bool) {
	if m.action == actionXref {
		if len(m.ranked) > 0 {
			return m.ranked[0].Sig, true
		}
		return nil, false
	}
	if m.unique != nil {
		return m.unique, true
	}
	return nil, false
}

func (m *tuiModel) updateContent() {
	out := m.markdown()
	if renderer := styles.GetMarkdownRenderer(m.width); renderer != nil {
		rendered, err := renderer.Render(out)
		if err != nil {
			slog.Debug("markdown render failed", "error", err)
		} else {
			out = rendered
		}
	}
	// The disassembly window carries ANSI colors, so it is appended after
	// the glamour pass rather than inside the markdown.
	if len(m.disasm) > 0 {
		var b strings.Builder
		b.WriteString("\n  Disassembly\n\n")
		for _, line := range m.disasm {
			b.WriteString("  " + colorize.ColorizeInstructionLine(line) + "\n")
		}
		out += b.String()
	}
	m.viewport.SetContent(out)
}

func (m tuiModel) markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.img.Path)
	fmt.Fprintf(&b, "Anchor `%#x` · dialect **%s** · wildcard operands **%v**\n\n", m.anchor, m.format, m.wildcard)

	if m.status != "" {
		fmt.Fprintf(&b, "> %s\n\n", m.status)
	}

	switch m.action {
	case actionXref:
		if len(m.ranked) > 0 {
			b.WriteString("## Cross-reference signatures\n\n")
			top := m.cfg.TopCount
			if top > len(m.ranked) {
				top = len(m.ranked)
			}
			for i := 0; i < top; i++ {
				r := m.ranked[i]
				fmt.Fprintf(&b, "%d. `%#x` %s · %d bytes\n\n   ```\n   %s\n   ```\n\n",
					i+1, r.Origin, originName(m.img, r.Origin), len(r.Sig), r.Sig.Render(m.format))
			}
		}
	default:
		if m.unique != nil {
			occurrences := m.img.FindOccurrences(m.unique.Render(sig.FormatIDA))
			fmt.Fprintf(&b, "## Unique signature · %d bytes\n\n```\n%s\n```\n\n", len(m.unique), m.unique.Render(m.format))
			fmt.Fprintf(&b, "%d occurrence(s) in the image\n", len(occurrences))
		}
	}
	return b.String()
}

func (m tuiModel) View() string {
	var content string
	if m.building {
		label := "Building signature..."
		if m.action == actionXref {
			label = "Ranking cross-references..."
		}
		content = fmt.Sprintf("\n %s %s", m.spinner.View(), label)
	} else {
		content = m.viewport.View()
	}

	menu := " U: unique • X: xrefs • F: dialect • W: wildcards • C: copy • Q: quit "
	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

var tuiCmd = &cobra.Command{
	Use:   "tui <binary> <address>",
	Short: "Interactive signature explorer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, format, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		anchor, err := parseAddr(args[1])
		if err != nil {
			return err
		}

		img, b, err := openTarget(args[0])
		if err != nil {
			return err
		}
		// Non-interactive growth inside the TUI.
		b.Confirm = nil

		program := tea.NewProgram(
			newTUIModel(img, b, anchor, cfg, format),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
