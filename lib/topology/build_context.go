package topology

import (
	"strings"
	"time"
)

const queryActionPrefix = "GetPrivateIp"

// BuildContext carries the values fixed for the duration of one build.
type BuildContext struct {
	// Timestamp is the build instant. It keys the network-interface query
	// action so the lookup is re-run on every deployment.
	Timestamp time.Time
}

// NewBuildContext returns a context for a build started at now.
func NewBuildContext(now time.Time) BuildContext {
	return BuildContext{Timestamp: now.UTC()}
}

// QueryActionKey is the identity of the query action: the prefix followed by
// the compact ISO-8601 timestamp, e.g. GetPrivateIp20240102T030405678Z.
func (c BuildContext) QueryActionKey() string {
	stamp := c.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(".", "", ":", "", "-", "").Replace(stamp)
	return queryActionPrefix + stamp
}
