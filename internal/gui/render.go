package gui

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/serialgrid/internal/display"
	"github.com/san-kum/serialgrid/internal/playback"
)

const (
	fontSize     = 20
	footerHeight = 2*fontSize + 24
	margin       = 12
)

// view owns the GPU texture holding the current frame.
type view struct {
	tex    rl.Texture2D
	loaded bool
	w, h   int
	seen   uint64
	pixels []color.RGBA
}

// upload replaces the texture when the frame size changes and updates it in
// place otherwise.
func (v *view) upload(img *image.RGBA) {
	b := img.Bounds()
	if !v.loaded || v.w != b.Dx() || v.h != b.Dy() {
		v.unload()
		im := rl.NewImageFromImage(img)
		v.tex = rl.LoadTextureFromImage(im)
		rl.UnloadImage(im)
		rl.SetTextureFilter(v.tex, rl.FilterPoint)
		v.w, v.h, v.loaded = b.Dx(), b.Dy(), true
		return
	}
	v.pixels = rgbaPixels(img, v.pixels)
	rl.UpdateTexture(v.tex, v.pixels)
}

func (v *view) unload() {
	if v.loaded {
		rl.UnloadTexture(v.tex)
		v.loaded = false
	}
}

func (v *view) Draw(img *image.RGBA, st display.Status, seen uint64) {
	if img != nil && seen != v.seen {
		v.upload(img)
		v.seen = seen
	}

	sw, sh := rl.GetScreenWidth(), rl.GetScreenHeight()

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if v.loaded {
		dst := aspectFit(v.w, v.h, sw, sh-footerHeight)
		rl.DrawTexturePro(v.tex,
			rl.NewRectangle(0, 0, float32(v.w), float32(v.h)),
			rl.NewRectangle(dst.X, dst.Y, dst.W, dst.H),
			rl.NewVector2(0, 0), 0, rl.White)
	} else {
		msg := "waiting for data..."
		tw := rl.MeasureText(msg, fontSize)
		rl.DrawText(msg, int32(sw)/2-tw/2, int32(sh-footerHeight)/2, fontSize, ColTextDim)
	}

	v.drawFooter(st, int32(sw), int32(sh))
	rl.EndDrawing()
}

func (v *view) drawFooter(st display.Status, sw, sh int32) {
	top := sh - footerHeight + margin/2
	rl.DrawLine(margin, top-margin/2, sw-margin, top-margin/2, ColTextDim)

	state, stats, rec, problem := statusLines(st)
	stateCol := ColPlay
	if st.State == playback.Paused {
		stateCol = ColPause
	}
	rl.DrawText(state, margin, top, fontSize, stateCol)
	rl.DrawText(stats, margin+rl.MeasureText(state, fontSize)+2*margin, top, fontSize, ColText)

	second := top + fontSize + 4
	x := int32(margin)
	if rec != "" {
		col := ColText
		if st.Recording {
			col = ColRecord
		}
		rl.DrawText(rec, x, second, fontSize, col)
		x += rl.MeasureText(rec, fontSize) + 2*margin
	}
	if problem != "" {
		rl.DrawText(problem, x, second, fontSize, ColRecord)
	}

	hint := "p pause  q quit"
	rl.DrawText(hint, sw-margin-rl.MeasureText(hint, fontSize), top, fontSize, ColTextDim)
}

func rgbaPixels(img *image.RGBA, buf []color.RGBA) []color.RGBA {
	b := img.Bounds()
	buf = buf[:0]
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			buf = append(buf, img.RGBAAt(x, y))
		}
	}
	return buf
}
