// Package memory configures the Go runtime memory limit from container
// resource limits.
package memory
