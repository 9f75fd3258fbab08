// Package encoder adapts the frame pipeline to a streaming video
// encoder. The sink enforces the encoder's ordering and readiness
// contract: frames are appended in non-decreasing presentation order,
// appends block under backpressure, and finalization is one-shot.
package encoder
