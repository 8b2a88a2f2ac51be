package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/serialgrid/internal/config"
	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/export"
	"github.com/san-kum/serialgrid/internal/gui"
	"github.com/san-kum/serialgrid/internal/session"
	"github.com/san-kum/serialgrid/internal/storage"
	"github.com/san-kum/serialgrid/internal/transport"
	"github.com/san-kum/serialgrid/internal/tui"
	"github.com/san-kum/serialgrid/internal/viz"
)

var (
	dataDir  string
	logFile  string
	logLevel string

	configFile string
	preset     string

	port          string
	baud          int
	skipFirstLine bool
	rows          int
	cols          int
	rangeMin      float64
	rangeMax      float64
	autoRange     bool
	palette       string
	scale         int
	blur          bool
	kernel        string
	output        string
	fps           int
	displayMode   string
	theme         string
	captureFile   string
	exitOnLoss    bool

	// replay and demo
	lineRate float64
	loop     bool

	series string
)

// the window surface must run on the main thread
func init() { runtime.LockOSThread() }

func main() {
	rootCmd := &cobra.Command{
		Use:           "serialgrid",
		Short:         "live heatmap of a sensor grid streamed over serial",
		Args:          cobra.NoArgs,
		RunE:          runSerial,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".serialgrid", "data directory for session records")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file (terminal display logs to <data>/serialgrid.log)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	sessionFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "visualize a serial port",
		Args:  cobra.NoArgs,
		RunE:  runSerial,
	}
	sessionFlags(runCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [capture]",
		Short: "visualize a captured line file, - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	sessionFlags(replayCmd)
	replayCmd.Flags().Float64Var(&lineRate, "rate", 10, "lines per second, 0 for as fast as possible")
	replayCmd.Flags().BoolVar(&loop, "loop", false, "start over at the end of the file")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "visualize a generated test pattern",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}
	sessionFlags(demoCmd)
	demoCmd.Flags().Float64Var(&lineRate, "rate", 10, "lines per second")

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		Args:  cobra.NoArgs,
		RunE:  listPorts,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list sensor presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	setupCmd := &cobra.Command{
		Use:   "setup [file]",
		Short: "interactive setup, writes a yaml config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSetup,
	}
	setupCmd.Flags().StringVar(&configFile, "config", "", "config file to start from")

	exportCmd := &cobra.Command{
		Use:   "export [session_id] [file.svg]",
		Short: "export a session chart as svg",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSession,
	}
	exportCmd.Flags().StringVar(&series, "series", "rate", "rate or malformed")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  listSessions,
	}
	sessionsCmd.AddCommand(
		&cobra.Command{
			Use:   "show [session_id]",
			Short: "print session metadata",
			Args:  cobra.ExactArgs(1),
			RunE:  showSession,
		},
		&cobra.Command{
			Use:   "plot [session_id]",
			Short: "plot the grid rate over a session",
			Args:  cobra.ExactArgs(1),
			RunE:  plotSession,
		},
		exportCmd,
	)

	rootCmd.AddCommand(runCmd, replayCmd, demoCmd, portsCmd, presetsCmd, setupCmd, sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func sessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml, or a legacy settings line)")
	f.StringVar(&preset, "preset", "", "sensor preset, see 'serialgrid presets'")
	f.StringVarP(&port, "port", "p", "", "serial port")
	f.IntVarP(&baud, "baud", "b", config.DefaultBaud, "baud rate")
	f.BoolVar(&skipFirstLine, "skip-first-line", true, "drop the first line, usually cut off")
	f.IntVar(&rows, "rows", config.DefaultRows, "grid rows")
	f.IntVar(&cols, "cols", config.DefaultCols, "grid columns")
	f.Float64Var(&rangeMin, "min", config.DefaultMin, "value mapped to the low end of the palette")
	f.Float64Var(&rangeMax, "max", config.DefaultMax, "value mapped to the high end of the palette")
	f.BoolVar(&autoRange, "auto", false, "scale each grid to its own min and max")
	f.StringVar(&palette, "palette", "grey", "palette name")
	f.IntVar(&scale, "scale", config.DefaultScale, "output pixels per cell")
	f.BoolVar(&blur, "blur", false, "smooth the grid before scaling")
	f.StringVar(&kernel, "kernel", "bilinear", "blur kernel")
	f.StringVarP(&output, "output", "o", "", "record to a .gif or .avi file")
	f.IntVar(&fps, "fps", config.DefaultFPS, "display and recording frame rate")
	f.StringVar(&displayMode, "display", "terminal", "terminal, window or none")
	f.StringVar(&theme, "theme", "", "terminal theme")
	f.StringVar(&captureFile, "capture", "", "write accepted lines to a file for replay")
	f.BoolVar(&exitOnLoss, "exit-on-loss", false, "quit when the transport is lost")
}

// loadConfig layers defaults, config file, preset and explicit flags, each
// overriding the one before.
func loadConfig(cmd *cobra.Command, log *slog.Logger) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		switch strings.ToLower(filepath.Ext(configFile)) {
		case ".yaml", ".yml":
			cfg, err = config.Load(configFile)
		default:
			var warnings []string
			cfg, warnings, err = config.LoadLegacy(configFile)
			for _, w := range warnings {
				log.Warn("legacy config", "file", configFile, "warning", w)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if preset != "" {
			config.Presets[preset].Apply(cfg)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = port
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baud
	}
	if flags.Changed("skip-first-line") {
		cfg.Serial.SkipFirstLine = skipFirstLine
	}
	if flags.Changed("rows") {
		cfg.Grid.Rows = rows
	}
	if flags.Changed("cols") {
		cfg.Grid.Cols = cols
	}
	if flags.Changed("min") {
		cfg.Range.Min = rangeMin
	}
	if flags.Changed("max") {
		cfg.Range.Max = rangeMax
	}
	if flags.Changed("auto") {
		cfg.Range.Auto = autoRange
	}
	if flags.Changed("palette") {
		cfg.Render.Palette = palette
		cfg.Render.Stops = nil
	}
	if flags.Changed("scale") {
		cfg.Render.Scale = scale
	}
	if flags.Changed("blur") {
		cfg.Render.Blur.Enabled = blur
	}
	if flags.Changed("kernel") {
		cfg.Render.Blur.Kernel = kernel
	}
	if flags.Changed("output") {
		cfg.Record.Output = output
	}
	if flags.Changed("fps") {
		cfg.Record.FPS = fps
	}
	if flags.Changed("display") {
		cfg.Display.Mode = displayMode
	}
	if flags.Changed("theme") {
		cfg.Display.Theme = theme
	}
	if flags.Changed("capture") {
		cfg.Capture = captureFile
	}
	return cfg, nil
}

func newLogger(mode display.Mode) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	path := logFile
	if path == "" && mode == display.ModeTerminal {
		// stderr would draw over the alt screen
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dataDir, "serialgrid.log")
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}

func newSurface(mode display.Mode, cfg *config.Config, name string) display.Surface {
	title := "serialgrid  " + name
	switch mode {
	case display.ModeWindow:
		return gui.NewApp(gui.WithTitle(title))
	case display.ModeNone:
		return display.NewHeadless()
	}
	return viz.NewTerminal(viz.WithTitle(title), viz.WithTheme(cfg.Display.Theme))
}

// openFunc opens the transport once the config is final.
type openFunc func(cfg *config.Config) (io.ReadCloser, string, error)

func runSerial(cmd *cobra.Command, args []string) error {
	return runSession(cmd, true, openSerial)
}

// openSerial reports a port that cannot be opened as a configuration error,
// since nothing has been read from it yet.
func openSerial(cfg *config.Config) (io.ReadCloser, string, error) {
	s, err := transport.OpenSerial(transport.SerialConfig{
		Port:        cfg.Serial.Port,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.Timeout,
		IdleTimeout: cfg.Serial.IdleTimeout,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return s, s.Name(), nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := args[0]
	return runSession(cmd, false, func(cfg *config.Config) (io.ReadCloser, string, error) {
		r, err := transport.OpenReplay(path, lineRate, loop)
		if err != nil {
			return nil, "", err
		}
		return r, "replay:" + path, nil
	})
}

func runDemo(cmd *cobra.Command, args []string) error {
	return runSession(cmd, false, func(cfg *config.Config) (io.ReadCloser, string, error) {
		lo, hi := cfg.Range.Min, cfg.Range.Max
		return transport.NewPattern(cfg.Grid.Rows, cfg.Grid.Cols, lo, hi, lineRate), "demo", nil
	})
}

func runSession(cmd *cobra.Command, serial bool, open openFunc) error {
	bootLog := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := loadConfig(cmd, bootLog)
	if err != nil {
		return err
	}
	if !serial {
		// generated and captured lines are whole from the start
		if !cmd.Flags().Changed("skip-first-line") {
			cfg.Serial.SkipFirstLine = false
		}
	}

	validate := cfg.Validate
	if serial {
		validate = cfg.ValidateForSerial
	}
	if err := validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr, "  "+line)
		}
		os.Exit(1)
	}

	mode, err := display.ParseMode(cfg.Display.Mode)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(mode)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, name, err := open(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	var capture io.Writer
	if cfg.Capture != "" {
		f, err := os.Create(cfg.Capture)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		defer f.Close()
		capture = f
	}

	res, err := session.Run(ctx, session.Options{
		Config:        cfg,
		Transport:     src,
		TransportName: name,
		Surface:       newSurface(mode, cfg, name),
		Logger:        log,
		Capture:       capture,
		// nothing to quit from without a display
		ExitOnLoss: exitOnLoss || mode == display.ModeNone,
		Store:      storage.New(dataDir),
	})
	if err != nil {
		return err
	}

	fmt.Printf("session %s: %s\n", res.ID, res.Reason)
	fmt.Printf("lines %d  grids %d  malformed %d  frames %d\n",
		res.Stats.Lines, res.Stats.Published, res.Stats.Malformed, res.Frames)
	if cfg.Record.Output != "" && res.RecordErr == nil && res.Frames > 0 {
		fmt.Printf("recorded %s\n", cfg.Record.Output)
	}
	return res.Err()
}

func listPorts(cmd *cobra.Command, args []string) error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tUSB\tVID:PID\tSERIAL\tPRODUCT")
	for _, p := range ports {
		usb, id := "no", ""
		if p.USB {
			usb, id = "yes", p.VID+":"+p.PID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, usb, id, p.SerialNumber, p.Product)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGRID\tRANGE\tBAUD\tPALETTE\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%dx%d\t%g..%g\t%d\t%s\t%s\n",
			name, p.Rows, p.Cols, p.Min, p.Max, p.Baud, p.Palette, p.Description)
	}
	return w.Flush()
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := "serialgrid.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	var start *config.Config
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		start = cfg
	}

	var names []string
	if ports, err := transport.ListPorts(); err == nil {
		for _, p := range ports {
			names = append(names, p.Name)
		}
	}

	cfg, err := tui.RunWizard(start, names)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Println("setup aborted, nothing written")
		return nil
	}
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	fmt.Printf("start with: serialgrid --config %s\n", path)
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sessions, err := st.List()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tTRANSPORT\tGRID\tGRIDS\tFRAMES\tREASON")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%s\t%dx%d\t%d\t%d\t%s\n",
			s.ID,
			s.Started.Format("2006-01-02 15:04:05"),
			s.Duration().Seconds(),
			s.Transport,
			s.Rows, s.Cols,
			s.Published,
			s.Frames,
			s.Reason,
		)
	}
	return w.Flush()
}

func showSession(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotSession(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	rate := make([]float64, len(samples))
	malformed := make([]float64, len(samples))
	for i, s := range samples {
		rate[i] = s.Rate
		malformed[i] = float64(s.Malformed)
	}

	fmt.Printf("session: %s\n", meta.ID)
	fmt.Printf("transport: %s\n", meta.Transport)
	fmt.Printf("samples: %d over %.1fs\n\n", len(samples), meta.Duration().Seconds())

	fmt.Println(asciigraph.Plot(rate,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("grids per second"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(malformed,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("malformed lines (total)"),
	))
	return nil
}

func exportSession(cmd *cobra.Command, args []string) error {
	pick, ok := export.SeriesByName[series]
	if !ok {
		return fmt.Errorf("unknown series: %s", series)
	}

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	path := args[0] + "-" + series + ".svg"
	if len(args) == 2 {
		path = args[1]
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.SamplesToSVG(f, samples, pick, 800, 300, "#00ff88"); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
