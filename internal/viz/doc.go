// Package viz draws simulation snapshots into terminal text.
//
//   - [Canvas]: Braille dot grid with a per-cell tag used for coloring
//   - [Camera]: orbiting projection from simulation space onto the canvas
//   - [Draw]: atoms as discs, bonds as one stroke per bond order
//   - [Theme]: lipgloss palettes with a color per element
//
// The package only reads [physics.Snapshot] values; callers own stepping.
package viz
