// Package refresh coordinates the bulk refresh entry points: one run per kind
// at a time, with a report for every run.
package refresh

import (
	"fmt"
	"strings"
	"time"
)

// Kind names a bulk refresh entry point.
type Kind string

const (
	KindPrices        Kind = "prices"
	KindNAVs          Kind = "navs"
	KindContributions Kind = "contributions"
	KindAmortization  Kind = "amortization"
)

// AllKinds lists every refresh kind in scheduling order.
var AllKinds = []Kind{KindPrices, KindNAVs, KindContributions, KindAmortization}

// ParseKind validates s as a refresh kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown refresh kind %q", s)
}

// Tally counts per-record outcomes of a bulk run.
type Tally struct {
	Updated      int `json:"updated" msgpack:"u"`
	Failed       int `json:"failed" msgpack:"f"`
	Skipped      int `json:"skipped" msgpack:"s"`
	ConfigErrors int `json:"configErrors" msgpack:"c"`
}

// Add merges o into t.
func (t *Tally) Add(o Tally) {
	t.Updated += o.Updated
	t.Failed += o.Failed
	t.Skipped += o.Skipped
	t.ConfigErrors += o.ConfigErrors
}

// Total is the number of records the run looked at.
func (t Tally) Total() int {
	return t.Updated + t.Failed + t.Skipped
}

// RunReport describes one completed run.
type RunReport struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Tally      Tally     `json:"tally"`
	Error      string    `json:"error,omitempty"`
	// Shared is set for callers that joined a run already in progress.
	Shared bool `json:"shared"`
}

// Duration is how long the run took.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run aborted.
func (r RunReport) Failed() bool {
	return r.Error != ""
}
