// Package photostore provides the photo library boundary: listing a
// gallery of source photos sorted by capture time and decoding them
// into frames, with size-constrained decoding and an optional libvips
// fast path.
package photostore
