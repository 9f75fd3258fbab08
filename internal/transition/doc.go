// Package transition implements the two-frame compositing effects used
// between consecutive photos: crossfade, hard cut, slide, zoom,
// directional wipes, page curl and ripple. All effects are pure
// functions of their inputs and a progress value.
package transition
