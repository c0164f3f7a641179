package server

import (
	"context"
	"fmt"
	"net/http"

	metrics "github.com/rcrowley/go-metrics"
)

// getStats reports operational counters for this instance: the error counter
// table accumulated by the response writers, the database call timers kept in
// the default metrics registry, and the permission cache footprint. The
// output is for operators, not programs, so the format is plain text with a
// JSON tail.
func (h AppServer) getStats(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	renderErrorCounters(w)

	if h.PermissionCache != nil {
		fmt.Fprintf(w, "\nPermission cache entries: %d\n", h.PermissionCache.ItemCount())
	}

	fmt.Fprintf(w, "\nTimers:\n")
	metrics.WriteJSONOnce(metrics.DefaultRegistry, w)
	return nil
}

// renderErrorCounters dumps the per-endpoint error counts.
func renderErrorCounters(w http.ResponseWriter) {
	doWriteCounters(w)
}

// Write the counters out. Collect the lines under the lock and do the IO
// after releasing it.
func doWriteCounters(w http.ResponseWriter) {
	totalQueries := int64(0)
	totalErrors := int64(0)
	var lines = make([]string, 0)

	mutex.Lock()
	for _, v := range counters {
		totalQueries += v
	}
	for k, v := range counters {
		// Unless it's 400 or greater, it's not an error.
		if k.Code >= 400 {
			lines = append(
				lines,
				fmt.Sprintf("%d\t%d\t%s:%d", v, k.Code, k.File, k.Line),
			)
			totalErrors += v
		}
	}
	mutex.Unlock()

	if len(lines) == 0 {
		fmt.Fprintf(w, "Errors: none\n")
	} else {
		fmt.Fprintf(w, "Errors: %d in %d queries\n", totalErrors, totalQueries)
		fmt.Fprintf(w, "count\tcode\tfile:line\n")
		for i := range lines {
			fmt.Fprintf(w, "%s\n", lines[i])
		}
	}
}
