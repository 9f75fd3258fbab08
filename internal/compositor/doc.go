// Package compositor orchestrates a composition run: it validates and
// orders the input photos, plans the frame timeline, composites
// transition frames, rasterizes them and streams the result into the
// encoder sink with typed error reporting.
package compositor
