// Package coordinator fans region fetches out over a fixed-width worker pool
// and merges the outcomes back in catalogue order once every fetch has
// finished.
package coordinator
