package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindDebug
	KindCount
)

// Report is a single call recorded by TestAPI.
type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
	Count  int64
}

// TestAPI records every report so tests can assert on what a component
// logged.
type TestAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func (t *TestAPI) record(r Report) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.reports = append(t.reports, r)
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.record(Report{Kind: KindBroken, ID: id, Params: params})
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.record(Report{Kind: KindWarning, ID: id, Params: params})
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.record(Report{Kind: KindDebug, ID: msg, Params: params})
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.record(Report{Kind: KindCount, ID: id, Count: count})
}

// Reports returns the recorded reports of the given kind in call order.
func (t *TestAPI) Reports(kind ReportKind) []Report {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []Report
	for _, r := range t.reports {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether a report of the given kind has an id ending with
// suffix. Suffix matching lets callers ignore ScopedAPI namespaces.
func (t *TestAPI) Has(kind ReportKind, suffix string) bool {
	for _, r := range t.Reports(kind) {
		if strings.HasSuffix(r.ID, suffix) {
			return true
		}
	}
	return false
}
