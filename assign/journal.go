// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assign

import (
	"sync"
	"time"
)

// JournalEvent represents an event type in the search journal.
type JournalEvent string

const (
	// JournalStart records the beginning of a solve.
	JournalStart JournalEvent = "start"

	// JournalIncumbent records an improvement of the best solution.
	JournalIncumbent JournalEvent = "incumbent"

	// JournalDone records the end of a solve.
	JournalDone JournalEvent = "done"
)

// String returns the string representation.
func (e JournalEvent) String() string {
	return string(e)
}

// JournalEntry records one event during a search.
//
// Each entry is immutable once recorded. Seq is assigned by the journal
// and increases strictly, so consumers can resume from a known position.
type JournalEntry struct {
	// Seq is the position of this entry in the journal, starting at 1.
	Seq int64 `json:"seq"`

	// Timestamp when this entry was created (Unix milliseconds UTC).
	Timestamp int64 `json:"timestamp"`

	// Event is the type of event recorded.
	Event JournalEvent `json:"event"`

	// Profit is the total profit associated with the event.
	Profit float64 `json:"profit,omitempty"`

	// FairProfit is the minimum per-task profit, for fair solves.
	FairProfit float64 `json:"fair_profit,omitempty"`

	// Nodes is the node count at the time of the event.
	Nodes int64 `json:"nodes,omitempty"`

	// Depth is the assignment depth associated with the event.
	Depth int `json:"depth,omitempty"`

	// Pairs holds the assignment for incumbent events.
	Pairs []Pair `json:"pairs,omitempty"`

	// Detail contains additional event-specific information.
	Detail string `json:"detail,omitempty"`
}

// SearchJournal keeps an append-only trail of search events.
//
// The journal is opt-in and unbounded: attach one to a solver when the
// incumbent history matters (debugging, live streaming) and size the
// problem accordingly.
//
// Thread Safety: Safe for concurrent use.
type SearchJournal struct {
	mu      sync.RWMutex
	entries []JournalEntry
}

// NewSearchJournal creates an empty journal.
//
// Thread Safety: The returned journal is safe for concurrent use.
func NewSearchJournal() *SearchJournal {
	return &SearchJournal{
		entries: make([]JournalEntry, 0),
	}
}

// Record appends an entry to the journal.
//
// The journal assigns Seq and fills in the timestamp if unset.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) Record(entry JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Seq = int64(len(j.entries)) + 1
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of all entries.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) Entries() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]JournalEntry, len(j.entries))
	copy(result, j.entries)
	return result
}

// Len returns the number of entries.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// EntriesAfter returns entries with Seq greater than the given value.
// Pass 0 for all entries. Consumers polling the journal keep the last
// Seq they saw and resume from it.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) EntriesAfter(seq int64) []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}
	if seq >= int64(len(j.entries)) {
		return nil
	}
	tail := j.entries[seq:]
	result := make([]JournalEntry, len(tail))
	copy(result, tail)
	return result
}

// ByEvent returns entries with the given event type, in order.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) ByEvent(event JournalEvent) []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]JournalEntry, 0)
	for _, entry := range j.entries {
		if entry.Event == event {
			result = append(result, entry)
		}
	}
	return result
}

// Summary returns summary statistics for the journal.
//
// Thread Safety: Safe for concurrent use.
func (j *SearchJournal) Summary() JournalSummary {
	j.mu.RLock()
	defer j.mu.RUnlock()

	summary := JournalSummary{
		TotalEntries: len(j.entries),
		EventCounts:  make(map[JournalEvent]int),
	}

	if len(j.entries) > 0 {
		summary.FirstEntry = j.entries[0].Timestamp
		summary.LastEntry = j.entries[len(j.entries)-1].Timestamp
	}

	for _, entry := range j.entries {
		summary.EventCounts[entry.Event]++
	}

	return summary
}

// JournalSummary contains summary statistics for a journal.
type JournalSummary struct {
	TotalEntries int                  `json:"total_entries"`
	FirstEntry   int64                `json:"first_entry,omitempty"` // Unix milliseconds UTC
	LastEntry    int64                `json:"last_entry,omitempty"`  // Unix milliseconds UTC
	EventCounts  map[JournalEvent]int `json:"event_counts"`
}
