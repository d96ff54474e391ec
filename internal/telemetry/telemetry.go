// Package telemetry maintains process-local counters for ledger activity.
// Counters are monotonic within a process lifetime and safe for concurrent
// use from any goroutine.
package telemetry

import "sync/atomic"

// Counters aggregates activity counts for the ledger core and its
// surrounding pipelines.
type Counters struct {
	entriesPosted       atomic.Uint64
	entriesReversed     atomic.Uint64
	periodLocksApplied  atomic.Uint64
	revaluationsPosted  atomic.Uint64
	ratesSubmitted      atomic.Uint64
	statementsIngested  atomic.Uint64
	rowsImported        atomic.Uint64
	rowsFailed          atomic.Uint64
	duplicatesDropped   atomic.Uint64
	candidatesProposed  atomic.Uint64
	candidatesAccepted  atomic.Uint64
	candidatesWrittenOf atomic.Uint64
	candidatesRejected  atomic.Uint64
	sessionsReopened    atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	EntriesPosted        uint64 `json:"entriesPosted"`
	EntriesReversed      uint64 `json:"entriesReversed"`
	PeriodLocksApplied   uint64 `json:"periodLocksApplied"`
	RevaluationsPosted   uint64 `json:"revaluationsPosted"`
	RatesSubmitted       uint64 `json:"ratesSubmitted"`
	StatementsIngested   uint64 `json:"statementsIngested"`
	RowsImported         uint64 `json:"rowsImported"`
	RowsFailed           uint64 `json:"rowsFailed"`
	DuplicatesDropped    uint64 `json:"duplicatesDropped"`
	CandidatesProposed   uint64 `json:"candidatesProposed"`
	CandidatesAccepted   uint64 `json:"candidatesAccepted"`
	CandidatesWrittenOff uint64 `json:"candidatesWrittenOff"`
	CandidatesRejected   uint64 `json:"candidatesRejected"`
	SessionsReopened     uint64 `json:"sessionsReopened"`
}

// New returns a zeroed counter set.
func New() *Counters {
	return &Counters{}
}

func (c *Counters) IncEntriesPosted()          { c.entriesPosted.Add(1) }
func (c *Counters) IncEntriesReversed()        { c.entriesReversed.Add(1) }
func (c *Counters) IncPeriodLocksApplied()     { c.periodLocksApplied.Add(1) }
func (c *Counters) IncRevaluationsPosted()     { c.revaluationsPosted.Add(1) }
func (c *Counters) IncRatesSubmitted()         { c.ratesSubmitted.Add(1) }
func (c *Counters) IncStatementsIngested()     { c.statementsIngested.Add(1) }
func (c *Counters) AddRowsImported(n uint64)   { c.rowsImported.Add(n) }
func (c *Counters) AddRowsFailed(n uint64)     { c.rowsFailed.Add(n) }
func (c *Counters) AddDuplicatesDropped(n uint64) {
	c.duplicatesDropped.Add(n)
}
func (c *Counters) AddCandidatesProposed(n uint64) {
	c.candidatesProposed.Add(n)
}
func (c *Counters) IncCandidatesAccepted()   { c.candidatesAccepted.Add(1) }
func (c *Counters) IncCandidatesWrittenOff() { c.candidatesWrittenOf.Add(1) }
func (c *Counters) IncCandidatesRejected()   { c.candidatesRejected.Add(1) }
func (c *Counters) IncSessionsReopened()     { c.sessionsReopened.Add(1) }

// Snapshot copies the current counter values. Each value is read atomically;
// the snapshot as a whole is not a single cut across all counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		EntriesPosted:        c.entriesPosted.Load(),
		EntriesReversed:      c.entriesReversed.Load(),
		PeriodLocksApplied:   c.periodLocksApplied.Load(),
		RevaluationsPosted:   c.revaluationsPosted.Load(),
		RatesSubmitted:       c.ratesSubmitted.Load(),
		StatementsIngested:   c.statementsIngested.Load(),
		RowsImported:         c.rowsImported.Load(),
		RowsFailed:           c.rowsFailed.Load(),
		DuplicatesDropped:    c.duplicatesDropped.Load(),
		CandidatesProposed:   c.candidatesProposed.Load(),
		CandidatesAccepted:   c.candidatesAccepted.Load(),
		CandidatesWrittenOff: c.candidatesWrittenOf.Load(),
		CandidatesRejected:   c.candidatesRejected.Load(),
		SessionsReopened:     c.sessionsReopened.Load(),
	}
}
