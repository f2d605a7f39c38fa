package domain

import (
	"sort"
	"time"

	"github.com/haukened/ringguard/internal/screen/common/phone"
)

// RejectionEntry records one blocked call. Entries are immutable once created.
type RejectionEntry struct {
	Number    string // number exactly as presented by the caller ID
	Timestamp int64  // epoch milliseconds
}

// NewRejectionEntry stamps number with t.
func NewRejectionEntry(number string, t time.Time) RejectionEntry {
	return RejectionEntry{Number: number, Timestamp: t.UnixMilli()}
}

// Time returns the entry timestamp as a time.Time.
func (e RejectionEntry) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// Normalized returns the comparison key of the entry's number.
func (e RejectionEntry) Normalized() string { return phone.Normalize(e.Number) }

// SortLatestFirst orders entries by timestamp, newest first, in place.
// Entries with equal timestamps keep their relative order.
func SortLatestFirst(entries []RejectionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
}

// RejectionGroup collapses all entries of one normalized number.
type RejectionGroup struct {
	Number        string  // raw form of the most recent entry
	Normalized    string  // shared comparison key
	Count         int     // number of entries in the group
	LastTimestamp int64   // max timestamp in the group
	AllTimestamps []int64 // every timestamp, newest first
}

// GroupByNumber builds the presentation view of a rejection log: one group per
// normalized number, sorted by LastTimestamp descending. Entries whose number
// does not normalize to anything are grouped by their raw form.
func GroupByNumber(entries []RejectionEntry) []RejectionGroup {
	idx := make(map[string]int, len(entries))
	groups := make([]RejectionGroup, 0, len(entries))
	for _, e := range entries {
		key := e.Normalized()
		if key == "" {
			key = "raw:" + e.Number
		}
		i, ok := idx[key]
		if !ok {
			idx[key] = len(groups)
			groups = append(groups, RejectionGroup{
				Number:        e.Number,
				Normalized:    e.Normalized(),
				Count:         1,
				LastTimestamp: e.Timestamp,
				AllTimestamps: []int64{e.Timestamp},
			})
			continue
		}
		g := &groups[i]
		g.Count++
		g.AllTimestamps = append(g.AllTimestamps, e.Timestamp)
		if e.Timestamp >= g.LastTimestamp {
			g.LastTimestamp = e.Timestamp
			g.Number = e.Number
		}
	}
	for i := range groups {
		ts := groups[i].AllTimestamps
		sort.Slice(ts, func(a, b int) bool { return ts[a] > ts[b] })
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastTimestamp > groups[j].LastTimestamp
	})
	return groups
}

// LogStats summarizes a rejection log.
type LogStats struct {
	Total         int
	UniqueNumbers int
	Last          *RejectionEntry // nil when the log is empty
}

// Summarize computes LogStats for entries.
func Summarize(entries []RejectionEntry) LogStats {
	st := LogStats{Total: len(entries)}
	uniq := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		key := e.Normalized()
		if key == "" {
			key = "raw:" + e.Number
		}
		uniq[key] = struct{}{}
		if st.Last == nil || e.Timestamp > st.Last.Timestamp {
			last := entries[i]
			st.Last = &last
		}
	}
	st.UniqueNumbers = len(uniq)
	return st
}
