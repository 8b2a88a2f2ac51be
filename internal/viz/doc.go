// Package viz shows the live heatmap in a terminal.
//
// [Terminal] is a display surface built on Bubble Tea. Each character cell
// carries two image pixels with the upper half block, so a frame keeps its
// aspect ratio at any terminal size. A footer shows playback state, the
// data rate graph, line quality and recording progress.
//
// # Key Bindings
//
//	p, c, s - Play/Pause
//	q, esc  - Quit (ctrl+c too)
//	t       - Cycle footer theme
//	?       - Toggle key help
package viz
