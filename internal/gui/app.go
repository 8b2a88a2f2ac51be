// Package gui shows the live heatmap in a desktop window using raylib.
package gui

import (
	"image"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/playback"
)

// Theme Colors (Monochrome)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColPlay    = rl.NewColor(180, 180, 180, 255)
	ColPause   = rl.NewColor(255, 170, 0, 255)
	ColRecord  = rl.NewColor(255, 68, 68, 255)
)

const (
	defaultWidth  = 960
	defaultHeight = 720
	targetFPS     = 60
)

type Option func(*App)

func WithTitle(title string) Option {
	return func(a *App) { a.title = title }
}

func WithSize(width, height int32) Option {
	return func(a *App) { a.width, a.height = width, height }
}

// App is a display surface backed by a raylib window. Show only stores the
// frame; the window loop uploads it on its next iteration.
type App struct {
	display.Latest
	actions *display.Actions

	title         string
	width, height int32
}

func NewApp(opts ...Option) *App {
	a := &App{
		actions: display.NewActions(),
		title:   "serialgrid",
		width:   defaultWidth,
		height:  defaultHeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) Show(img *image.RGBA, st display.Status) {
	a.Set(img, st)
}

func (a *App) Actions() <-chan playback.Action {
	return a.actions.C()
}

func (a *App) Close() {
	a.actions.Close()
}

// initWindow opens a resizable window and disables the default exit key so
// escape reaches the key handler.
func initWindow(title string, width, height int32) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(width, height, title)
	rl.SetTargetFPS(targetFPS)
	rl.SetExitKey(0)
}

// Run opens the window and blocks until Close. Raylib is bound to the thread
// that opened the window, so Run belongs on the main goroutine.
func (a *App) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	initWindow(a.title, a.width, a.height)
	defer rl.CloseWindow()

	v := &view{}
	defer v.unload()

	closing := false
	for {
		select {
		case <-a.actions.Done():
			return nil
		default:
		}

		// the close button asks for a quit once; the window stays up until
		// the session has finalized and calls Close
		if rl.WindowShouldClose() && !closing {
			closing = true
			a.actions.Send(playback.ActionQuit)
		}
		a.Update()

		img, st, n := a.Get()
		v.Draw(img, st, n)
	}
}

// Update forwards key presses queued since the last frame.
func (a *App) Update() {
	shift := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		a.actions.Send(playback.KeyAction(keyName(key, shift)))
	}
}

// keyName names the raylib keys that map to playback actions.
func keyName(key int32, shift bool) string {
	switch key {
	case rl.KeyP:
		return "p"
	case rl.KeyC:
		return "c"
	case rl.KeyS:
		return "s"
	case rl.KeyQ:
		if shift {
			return "Q"
		}
		return "q"
	case rl.KeyEscape:
		return "escape"
	}
	return ""
}
