// Package timeline plans the frame schedule for a composition run:
// an ordered list of main and transition frames with strictly
// increasing presentation timestamps on a fixed 600-unit-per-second
// timescale.
package timeline
