// Package sched implements cancel-and-replace timers driven by the render
// tick. Nothing here runs on its own: owner calls Fire with current time and
// due callbacks are executed synchronously.
package sched

import (
	"sort"
	"time"
)

// Kind identifies timer slot. At most one timer of a kind is pending.
type Kind string

const (
	Resize       Kind = "resize"
	Tap          Kind = "tap"
	LinkFade     Kind = "link-fade"
	HighFidelity Kind = "high-fidelity"
)

type timer struct {
	kind Kind
	due  time.Time
	seq  uint64
	fn   func(now time.Time)
}

// Timers is not safe for concurrent use.
type Timers struct {
	pending map[Kind]timer
	seq     uint64
}

func New() *Timers {
	return &Timers{pending: make(map[Kind]timer)}
}

// Schedule sets timer of kind to fire at due, replacing pending one.
func (t *Timers) Schedule(kind Kind, due time.Time, fn func(now time.Time)) {
	t.seq++
	t.pending[kind] = timer{kind: kind, due: due, seq: t.seq, fn: fn}
}

// After is Schedule relative to now.
func (t *Timers) After(kind Kind, now time.Time, d time.Duration, fn func(now time.Time)) {
	t.Schedule(kind, now.Add(d), fn)
}

// Cancel removes pending timer and reports whether there was one.
func (t *Timers) Cancel(kind Kind) bool {
	_, ok := t.pending[kind]
	delete(t.pending, kind)
	return ok
}

// Pending reports whether timer of kind is waiting to fire.
func (t *Timers) Pending(kind Kind) bool {
	_, ok := t.pending[kind]
	return ok
}

// Due returns deadline of pending timer.
func (t *Timers) Due(kind Kind) (time.Time, bool) {
	tm, ok := t.pending[kind]
	return tm.due, ok
}

// Flush runs timer of kind if it is due at now and reports whether it fired.
// Owner calls it before replacing a timer whose deadline may have passed
// without a tick.
func (t *Timers) Flush(kind Kind, now time.Time) bool {
	tm, ok := t.pending[kind]
	if !ok || tm.due.After(now) {
		return false
	}
	delete(t.pending, kind)
	tm.fn(now)
	return true
}

// Reset drops all pending timers.
func (t *Timers) Reset() {
	clear(t.pending)
}

// Fire runs all timers due at now in deadline order and returns how many
// fired. Timers scheduled by callbacks wait for the next call.
func (t *Timers) Fire(now time.Time) int {
	var due []timer
	for _, tm := range t.pending {
		if !tm.due.After(now) {
			due = append(due, tm)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].seq < due[j].seq
		}
		return due[i].due.Before(due[j].due)
	})

	fired := 0
	for _, tm := range due {
		// earlier callback may have replaced or cancelled this one
		cur, ok := t.pending[tm.kind]
		if !ok || cur.seq != tm.seq {
			continue
		}
		delete(t.pending, tm.kind)
		tm.fn(now)
		fired++
	}
	return fired
}
