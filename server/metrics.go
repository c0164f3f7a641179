package server

import (
	"strconv"
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// trackOperation records latency and outcome for one request under its
// matched route name. Timers and counters land in the default go-metrics
// registry, which the stats endpoint renders as JSON.
func (h AppServer) trackOperation(method, uri string, herr *AppError, beganAt time.Time) {
	metrics.GetOrRegisterTimer("http."+method+"."+h.routeName(uri), metrics.DefaultRegistry).UpdateSince(beganAt)
	code := 200
	if herr != nil {
		code = herr.Code
	}
	metrics.GetOrRegisterCounter("http.status."+strconv.Itoa(code), metrics.DefaultRegistry).Inc(1)
}

// routeName collapses a request path to its route so metric names stay
// bounded no matter what identifiers and tokens appear in the path.
func (h AppServer) routeName(uri string) string {
	rx := h.Routes
	switch {
	case rx.Ping.MatchString(uri):
		return "ping"
	case rx.Stats.MatchString(uri):
		return "stats"
	case rx.Shares.MatchString(uri):
		return "shares"
	case rx.Share.MatchString(uri):
		return "share"
	case rx.ShareAccess.MatchString(uri):
		return "shares.access"
	case rx.Grants.MatchString(uri):
		return "grants"
	case rx.Grant.MatchString(uri):
		return "grant"
	case rx.EffectivePermissions.MatchString(uri):
		return "permissions.effective"
	case rx.Decide.MatchString(uri):
		return "decide"
	case rx.ExportSeal.MatchString(uri):
		return "exports.seal"
	case rx.ExportOpen.MatchString(uri):
		return "exports.open"
	}
	return "unmatched"
}
