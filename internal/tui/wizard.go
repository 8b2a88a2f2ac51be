// Package tui runs the interactive setup wizard: pick a sensor preset, edit
// the connection and display settings, and get back a validated config.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/serialgrid/internal/config"
	"github.com/san-kum/serialgrid/internal/render"
)

// ErrAborted is returned when the user leaves the wizard without saving.
var ErrAborted = errors.New("tui: setup aborted")

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const custom = "custom"

// indexes into fields that take completions
const (
	portField    = 0
	paletteField = 8
)

// field is one editable setting. set parses the text into cfg.
type field struct {
	label string
	hint  string
	get   func(*config.Config) string
	set   func(*config.Config, string) error
}

func intField(label, hint string, p func(*config.Config) *int) field {
	return field{
		label: label,
		hint:  hint,
		get:   func(c *config.Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *config.Config, s string) error {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%s: %q is not a whole number", label, s)
			}
			*p(c) = v
			return nil
		},
	}
}

func floatField(label string, p func(*config.Config) *float64) field {
	return field{
		label: label,
		get:   func(c *config.Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		set: func(c *config.Config, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("%s: %q is not a number", label, s)
			}
			*p(c) = v
			return nil
		},
	}
}

var fields = []field{
	{
		label: "serial port",
		hint:  "tab completes a detected port",
		get:   func(c *config.Config) string { return c.Serial.Port },
		set:   func(c *config.Config, s string) error { c.Serial.Port = s; return nil },
	},
	intField("baud", "", func(c *config.Config) *int { return &c.Serial.Baud }),
	{
		label: "read timeout",
		hint:  "e.g. 5s or 500ms",
		get:   func(c *config.Config) string { return c.Serial.Timeout.String() },
		set: func(c *config.Config, s string) error {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("read timeout: %q is not a duration", s)
			}
			c.Serial.Timeout = d
			return nil
		},
	},
	intField("rows", "", func(c *config.Config) *int { return &c.Grid.Rows }),
	intField("cols", "", func(c *config.Config) *int { return &c.Grid.Cols }),
	floatField("range min", func(c *config.Config) *float64 { return &c.Range.Min }),
	floatField("range max", func(c *config.Config) *float64 { return &c.Range.Max }),
	{
		label: "auto range",
		hint:  "y follows each grid's own min and max",
		get: func(c *config.Config) string {
			if c.Range.Auto {
				return "y"
			}
			return "n"
		},
		set: func(c *config.Config, s string) error {
			switch strings.ToLower(s) {
			case "y", "yes":
				c.Range.Auto = true
			case "n", "no", "":
				c.Range.Auto = false
			default:
				return fmt.Errorf("auto range: answer y or n")
			}
			return nil
		},
	},
	{
		label: "palette",
		hint:  strings.Join(render.PaletteNames(), " "),
		get:   func(c *config.Config) string { return c.Render.Palette },
		set:   func(c *config.Config, s string) error { c.Render.Palette = s; return nil },
	},
	intField("pixel scale", "screen pixels per cell", func(c *config.Config) *int { return &c.Render.Scale }),
	{
		label: "record to",
		hint:  ".gif or .avi, blank for none",
		get:   func(c *config.Config) string { return c.Record.Output },
		set:   func(c *config.Config, s string) error { c.Record.Output = s; return nil },
	},
	intField("record fps", "", func(c *config.Config) *int { return &c.Record.FPS }),
}

type stage int

const (
	stageMenu stage = iota
	stageForm
)

type wizard struct {
	stage   stage
	cursor  int
	choices []string
	ports   []string

	base    *config.Config
	cfg     *config.Config
	inputs  []textinput.Model
	focus   int
	err     error
	done    bool
	aborted bool
}

func newWizard(start *config.Config, ports []string) wizard {
	if start == nil {
		start = config.DefaultConfig()
	}
	return wizard{
		choices: append([]string{custom}, config.ListPresets()...),
		ports:   ports,
		base:    start,
	}
}

func (m wizard) Init() tea.Cmd { return nil }

func (m wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		m.aborted = true
		return m, tea.Quit
	}
	switch m.stage {
	case stageMenu:
		return m.menuKey(key)
	case stageForm:
		return m.formKey(key)
	}
	return m, nil
}

func (m wizard) menuKey(msg tea.KeyMsg) (wizard, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		cfg := *m.base
		if p, ok := config.Presets[m.choices[m.cursor]]; ok {
			p.Apply(&cfg)
		}
		m.cfg = &cfg
		m.stage = stageForm
		m.err = nil
		cmd := m.buildInputs()
		return m, cmd
	}
	return m, nil
}

func (m *wizard) buildInputs() tea.Cmd {
	m.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 32
		ti.SetValue(f.get(m.cfg))
		m.inputs[i] = ti
	}
	m.inputs[portField].ShowSuggestions = true
	m.inputs[portField].SetSuggestions(m.ports)
	m.inputs[paletteField].ShowSuggestions = true
	m.inputs[paletteField].SetSuggestions(render.PaletteNames())
	m.focus = 0
	return m.inputs[0].Focus()
}

func (m wizard) formKey(msg tea.KeyMsg) (wizard, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stage = stageMenu
		m.err = nil
		return m, nil
	case "up", "shift+tab":
		cmd := m.moveFocus(-1)
		return m, cmd
	case "down":
		cmd := m.moveFocus(1)
		return m, cmd
	case "enter":
		if m.focus < len(m.inputs)-1 {
			cmd := m.moveFocus(1)
			return m, cmd
		}
		return m.submit()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *wizard) moveFocus(d int) tea.Cmd {
	next := m.focus + d
	if next < 0 || next >= len(m.inputs) {
		return nil
	}
	return m.setFocus(next)
}

func (m *wizard) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// submit parses every field into the config and validates it. The first
// field that fails to parse gets the focus back.
func (m wizard) submit() (wizard, tea.Cmd) {
	cfg := *m.cfg
	var errs []error
	firstBad := -1
	for i, f := range fields {
		if err := f.set(&cfg, strings.TrimSpace(m.inputs[i].Value())); err != nil {
			errs = append(errs, err)
			if firstBad < 0 {
				firstBad = i
			}
		}
	}
	if len(errs) == 0 {
		if err := cfg.ValidateForSerial(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		m.err = errors.Join(errs...)
		if firstBad >= 0 {
			cmd := m.setFocus(firstBad)
			return m, cmd
		}
		return m, nil
	}

	m.cfg = &cfg
	m.err = nil
	m.done = true
	return m, tea.Quit
}

func (m wizard) View() string {
	if m.done || m.aborted {
		return ""
	}
	switch m.stage {
	case stageMenu:
		return m.viewMenu()
	case stageForm:
		return m.viewForm()
	}
	return ""
}

func (m wizard) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("s e r i a l g r i d") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.choices {
		desc := "start from the current settings"
		if p, ok := config.Presets[name]; ok {
			desc = p.Description
		}
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter choose   q quit") + "\n")
	return b.String()
}

func (m wizard) viewForm() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.choices[m.cursor]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 44)) + "\n\n")

	for i, f := range fields {
		if i == m.focus {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-13s", f.label)) + magenta.Render(m.inputs[i].View()))
			if f.hint != "" {
				b.WriteString("  " + dimmer.Render(f.hint))
			}
			b.WriteString("\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-13s", f.label)) + dim.Render(m.inputs[i].Value()) + "\n")
		}
	}
	if len(m.ports) > 0 && m.focus == portField {
		b.WriteString("\n" + dimmer.Render("      detected: "+strings.Join(m.ports, "  ")) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		for _, line := range strings.Split(m.err.Error(), "\n") {
			b.WriteString("      " + red.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ move   enter next/save   esc back") + "\n")
	return b.String()
}

// RunWizard asks for a configuration starting from start. ports are offered
// as completions for the serial port.
func RunWizard(start *config.Config, ports []string) (*config.Config, error) {
	final, err := tea.NewProgram(newWizard(start, ports)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(wizard)
	if m.aborted || !m.done {
		return nil, ErrAborted
	}
	return m.cfg, nil
}
