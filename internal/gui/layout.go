package gui

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/serialgrid/internal/display"
)

type rect struct {
	X, Y, W, H float32
}

// aspectFit centers a w×h frame in an areaW×areaH region, scaled to touch
// the nearer pair of edges.
func aspectFit(w, h, areaW, areaH int) rect {
	if w <= 0 || h <= 0 || areaW <= 0 || areaH <= 0 {
		return rect{}
	}
	s := min(float32(areaW)/float32(w), float32(areaH)/float32(h))
	dw, dh := float32(w)*s, float32(h)*s
	return rect{
		X: (float32(areaW) - dw) / 2,
		Y: (float32(areaH) - dh) / 2,
		W: dw,
		H: dh,
	}
}

// statusLines formats the footer. The default raylib font is ASCII only.
func statusLines(st display.Status) (state, stats, rec, problem string) {
	state = strings.ToUpper(st.State.String())

	stats = fmt.Sprintf("%dx%d  seq %d  %.1f/s  quality %.0f%%  malformed %d  clamped %d  %s",
		st.Rows, st.Cols, st.Seq, st.Rate, st.Quality*100, st.Malformed, st.Clamped,
		st.Elapsed.Truncate(time.Second))

	switch {
	case st.RecordErr != nil:
		problem = "recording stopped: " + st.RecordErr.Error()
	case st.Recording:
		rec = fmt.Sprintf("REC %s  %d frames", st.RecordPath, st.Frames)
	}
	if st.TransportErr != nil {
		if problem != "" {
			problem += "  "
		}
		problem += "transport lost: " + st.TransportErr.Error()
	}
	return state, stats, rec, problem
}
