// Package utils holds small helpers shared across lancong packages: vector
// math, slice batching and panic recovery for worker goroutines.
package utils
