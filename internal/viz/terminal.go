package viz

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/playback"
)

const (
	pollInterval = time.Second / 30
	graphHeight  = 3
	// below this many terminal rows the rate graph becomes a sparkline
	graphMinRows = 30
)

type pollMsg time.Time

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

type Option func(*Terminal)

// WithTitle sets the header text, usually the transport name.
func WithTitle(title string) Option {
	return func(t *Terminal) { t.title = title }
}

func WithTheme(name string) Option {
	return func(t *Terminal) { t.theme = GetTheme(name) }
}

// WithProgramOptions passes extra options to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(t *Terminal) { t.teaOpts = append(t.teaOpts, opts...) }
}

// Terminal is a display surface drawing into the terminal. Show only stores
// the frame; the Bubble Tea loop picks it up on its next poll.
type Terminal struct {
	display.Latest
	actions *display.Actions
	title   string
	theme   Theme
	teaOpts []tea.ProgramOption
}

func NewTerminal(opts ...Option) *Terminal {
	t := &Terminal{
		actions: display.NewActions(),
		title:   "serialgrid",
		theme:   Themes[0],
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Show(img *image.RGBA, st display.Status) {
	t.Set(img, st)
}

func (t *Terminal) Actions() <-chan playback.Action {
	return t.actions.C()
}

// Run takes over the terminal until Close. Interrupts are left to the
// caller's signal handling.
func (t *Terminal) Run() error {
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}, t.teaOpts...)
	p := tea.NewProgram(newModel(t), opts...)
	_, err := p.Run()
	t.actions.Close()
	return err
}

func (t *Terminal) Close() {
	t.actions.Close()
}

type model struct {
	term          *Terminal
	width, height int
	theme         Theme
	styles        styles
	help          bool

	img  *image.RGBA
	st   display.Status
	seen uint64

	header, cells, footer string
}

func newModel(t *Terminal) model {
	return model{
		term:   t,
		width:  80,
		height: 24,
		theme:  t.theme,
		styles: newStyles(t.theme),
	}
}

func (m model) Init() tea.Cmd {
	return poll()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c":
			m.term.actions.Send(playback.ActionQuit)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
			m.refresh()
		case "?":
			m.help = !m.help
			m.refresh()
		default:
			m.term.actions.Send(playback.KeyAction(key))
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refresh()
		return m, nil
	case pollMsg:
		select {
		case <-m.term.actions.Done():
			return m, tea.Quit
		default:
		}
		if img, st, n := m.term.Get(); n != m.seen {
			m.img, m.st, m.seen = img, st, n
			m.refresh()
		}
		return m, poll()
	}
	return m, nil
}

// refresh rebuilds the cached view. The heatmap gets whatever rows the
// header and footer leave.
func (m *model) refresh() {
	m.header = m.renderHeader()
	m.footer = m.renderFooter()
	rows := m.height - lipgloss.Height(m.header) - lipgloss.Height(m.footer)
	if m.img == nil || rows < 1 {
		m.cells = m.styles.subtle.Render("waiting for data…")
		return
	}
	m.cells = halfBlocks(m.img, m.width, rows)
}

func (m model) View() string {
	body := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.cells)
	return lipgloss.JoinVertical(lipgloss.Left, m.header, body, m.footer)
}

func (m model) renderHeader() string {
	s, st := m.styles, m.st
	var badge string
	switch st.State {
	case playback.Playing:
		badge = s.playing.Render("▶ PLAYING")
	case playback.Paused:
		badge = s.paused.Render("⏸ PAUSED")
	default:
		badge = s.stopped.Render("■ " + strings.ToUpper(st.State.String()))
	}
	shape := ""
	if st.Rows > 0 {
		shape = s.label.Render(fmt.Sprintf("%d×%d", st.Rows, st.Cols))
	}
	return strings.Join([]string{
		s.header.Render(m.term.title),
		shape,
		badge,
		s.label.Render(st.Elapsed.Truncate(time.Second).String()),
	}, "  ")
}

func (m model) renderFooter() string {
	s, st := m.styles, m.st
	stat := func(label, value string) string {
		return s.label.Render(label+" ") + s.value.Render(value)
	}

	lines := []string{s.separator(m.width)}
	lines = append(lines, strings.Join([]string{
		stat("seq", fmt.Sprint(st.Seq)),
		stat("rate", fmt.Sprintf("%.1f/s", st.Rate)),
		stat("lines", fmt.Sprint(st.Lines)),
		stat("malformed", fmt.Sprint(st.Malformed)),
		stat("clamped", fmt.Sprint(st.Clamped)),
	}, "  "))
	lines = append(lines, s.label.Render("quality ")+s.progressBar(st.Quality, 20)+
		s.value.Render(fmt.Sprintf(" %.1f%%", st.Quality*100)))

	if len(st.RateHistory) > 1 && m.width > 24 {
		if m.height >= graphMinRows {
			chart := asciigraph.Plot(st.RateHistory,
				asciigraph.Height(graphHeight),
				asciigraph.Width(min(60, m.width-14)),
				asciigraph.Caption("grids/s"))
			lines = append(lines, s.graph.Render(chart))
		} else {
			lines = append(lines, s.label.Render("rate ")+s.sparkline(st.RateHistory, min(40, m.width-6)))
		}
	}

	switch {
	case st.RecordErr != nil:
		lines = append(lines, s.errText.Render("recording stopped: "+st.RecordErr.Error()))
	case st.Recording:
		lines = append(lines, s.recording.Render("● REC")+" "+
			s.value.Render(st.RecordPath)+s.label.Render(fmt.Sprintf("  %d frames", st.Frames)))
	}
	if st.TransportErr != nil {
		lines = append(lines, s.errText.Render("transport lost: "+st.TransportErr.Error())+
			s.keyHint.Render("  last frame held, q to quit"))
	}

	if m.help {
		lines = append(lines,
			s.keyHint.Render("p, c, s  play/pause (acquisition continues while paused)"),
			s.keyHint.Render("q, esc   quit and finalize the recording"),
			s.keyHint.Render("t        cycle footer theme ("+m.theme.Name+")"),
			s.keyHint.Render("?        hide this help"))
	} else {
		lines = append(lines, s.keyHint.Render("p play/pause · q quit · t theme · ? help"))
	}
	return strings.Join(lines, "\n")
}

// fit scales w×h to fit inside maxW×maxH keeping the aspect ratio. Small
// images grow by a whole factor so pixels stay square.
func fit(w, h, maxW, maxH int) (int, int) {
	if w < 1 || h < 1 || maxW < 1 || maxH < 1 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		k := min(maxW/w, maxH/h)
		return w * k, h * k
	}
	s := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(float64(w)*s)), max(1, int(float64(h)*s))
}

// halfBlocks draws img into at most cols×rows cells. The upper half block
// takes the top pixel as foreground and the bottom pixel as background.
func halfBlocks(img *image.RGBA, cols, rows int) string {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), cols, rows*2)
	if w == 0 {
		return ""
	}

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	var interp draw.Interpolator = draw.ApproxBiLinear
	if w >= b.Dx() {
		interp = draw.NearestNeighbor
	}
	interp.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		hasBottom := y+1 < h
		for x := 0; x < w; {
			top := small.RGBAAt(x, y)
			var bottom color.RGBA
			if hasBottom {
				bottom = small.RGBAAt(x, y+1)
			}
			run := 1
			for x+run < w && small.RGBAAt(x+run, y) == top &&
				(!hasBottom || small.RGBAAt(x+run, y+1) == bottom) {
				run++
			}

			style := lipgloss.NewStyle().Foreground(termColor(top))
			if hasBottom {
				style = style.Background(termColor(bottom))
			}
			sb.WriteString(style.Render(strings.Repeat("▀", run)))
			x += run
		}
	}
	return sb.String()
}

func termColor(c color.RGBA) lipgloss.Color {
	cf, _ := colorful.MakeColor(c)
	return lipgloss.Color(cf.Hex())
}
