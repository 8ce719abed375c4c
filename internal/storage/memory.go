package storage

import (
	"iter"
	"sort"

	"github.com/Tiliavir/ti/internal/model"
)

// Helpers shared by the file backends, which hold the whole data set in memory.

// currentOf returns the open entry with the latest start, or nil.
func currentOf(entries []model.Entry) *model.Entry {
	var cur *model.Entry
	for i := range entries {
		e := entries[i]
		if !e.IsCurrent {
			continue
		}
		if cur == nil || !e.Start.Before(cur.Start) {
			cur = &e
		}
	}
	return cur
}

// inRange returns the entries with start_date in [from, to], stable-sorted by start.
func inRange(entries []model.Entry, from, to string) []model.Entry {
	var out []model.Entry
	for _, e := range entries {
		if from <= e.StartDate && e.StartDate <= to {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// aggregate sums the durations of closed entries per (project, task), in
// first-seen order. Open entries are skipped.
func aggregate(entries []model.Entry) []model.AggregatedLog {
	type key struct{ project, task string }
	index := map[key]int{}
	var out []model.AggregatedLog
	for _, e := range entries {
		if e.DurationSeconds == nil {
			continue
		}
		k := key{e.Project, e.Task}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, model.AggregatedLog{Project: e.Project, Task: e.Task})
		}
		out[i].TotalSeconds += *e.DurationSeconds
	}
	return out
}

// sliceSeq yields the values of a loaded slice, or a single load error.
func sliceSeq[T any](load func() ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		values, err := load()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}
