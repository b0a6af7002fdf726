// Package viz renders runs in the terminal.
//
//   - [Heatmap]: log field strength as shaded, colored cells with particle
//     markers colored by charge sign
//   - [Player]: Bubble Tea playback of a stored trajectory, the field
//     recomputed for every frame
//   - [Canvas]: Braille canvas for particle trails
//   - [PlotSeries]: line charts of trajectory components
//
// # Player keys
//
//	Space     - Pause/Resume
//	R         - Rewind to the first frame
//	[ / ]     - Step one frame back/forward
//	+ / -     - Double/halve the frame skip
//	C         - Cycle colormaps
//	Q         - Quit
package viz
