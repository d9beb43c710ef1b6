//go:build statsview

package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// StatsViewAddress is where the stats server listens.
const StatsViewAddress = "localhost:12600"

const statsViewURL = "/debug/statsview"

// LaunchStatsView starts the runtime statistics server in a new goroutine.
// Charts are served at StatsViewAddress/debug/statsview and pprof under
// /debug/pprof/.
func LaunchStatsView(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(StatsViewAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", StatsViewAddress, statsViewURL)
}

// StatsViewAvailable reports whether the binary was built with the stats server.
func StatsViewAvailable() bool {
	return true
}
