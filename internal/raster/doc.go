// Package raster converts composited frames into the packed BGRA
// bottom-up buffers the video encoder consumes.
package raster
