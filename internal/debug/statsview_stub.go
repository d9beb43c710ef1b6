//go:build !statsview

package debug

import "io"

// StatsViewAddress is where the stats server would listen.
const StatsViewAddress = ""

// LaunchStatsView does nothing without the statsview build tag.
func LaunchStatsView(output io.Writer) {}

// StatsViewAvailable reports whether the binary was built with the stats server.
func StatsViewAvailable() bool {
	return false
}
