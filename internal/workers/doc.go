// Package workers calculates worker pool sizes based on available CPU
// resources and task characteristics.
package workers
