// Package refs keeps two-sided document references in step. A subject (a
// product, a bazaar category) lists the owners it belongs to; each owner keeps
// the reverse set. Reconcile computes the difference between the subject's old
// and new owner sets and applies it to the owner side through a Linker.
package refs

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Linker mutates the owner side of a relation. Both calls must be idempotent:
// adding an existing member or removing an absent one is not an error.
type Linker interface {
	Add(ctx context.Context, ownerID, subjectID primitive.ObjectID) error
	Remove(ctx context.Context, ownerID, subjectID primitive.ObjectID) error
}

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Delta is one owner-side mutation.
type Delta struct {
	Op    Op
	Owner primitive.ObjectID
}

func (d Delta) String() string {
	return string(d.Op) + ":" + d.Owner.Hex()
}

// PartialError reports a reconcile that stopped part-way. Deltas applied before
// Failed are kept; Remaining lists the ones that were never attempted.
type PartialError struct {
	Subject   primitive.ObjectID
	Failed    Delta
	Remaining []Delta
	Err       error
}

func (e *PartialError) Error() string {
	pending := make([]string, 0, len(e.Remaining))
	for _, d := range e.Remaining {
		pending = append(pending, d.String())
	}
	return fmt.Sprintf("reconcile %s: %s failed: %v (pending: [%s])",
		e.Subject.Hex(), e.Failed, e.Err, strings.Join(pending, " "))
}

func (e *PartialError) Unwrap() error { return e.Err }

// Diff returns the owners to add (in newSet, not in oldSet) and to remove (in
// oldSet, not in newSet). Duplicates collapse; first-appearance order is kept.
func Diff(oldSet, newSet []primitive.ObjectID) (toAdd, toRemove []primitive.ObjectID) {
	oldIdx := index(oldSet)
	newIdx := index(newSet)
	for _, id := range unique(newSet) {
		if _, ok := oldIdx[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range unique(oldSet) {
		if _, ok := newIdx[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

// Plan orders the deltas for a subject moving from oldSet to newSet. Removals
// come first so a failure never leaves an owner listing both sides of a move.
func Plan(oldSet, newSet []primitive.ObjectID) []Delta {
	toAdd, toRemove := Diff(oldSet, newSet)
	deltas := make([]Delta, 0, len(toAdd)+len(toRemove))
	for _, id := range toRemove {
		deltas = append(deltas, Delta{Op: OpRemove, Owner: id})
	}
	for _, id := range toAdd {
		deltas = append(deltas, Delta{Op: OpAdd, Owner: id})
	}
	return deltas
}

// Reconcile brings the owner side in line with newSet. It returns a
// *PartialError on the first failing call; earlier deltas are not undone.
func Reconcile(ctx context.Context, subjectID primitive.ObjectID, oldSet, newSet []primitive.ObjectID, l Linker) error {
	return apply(ctx, subjectID, Plan(oldSet, newSet), l)
}

// Retry re-applies the failed delta and everything after it.
func Retry(ctx context.Context, perr *PartialError, l Linker) error {
	deltas := append([]Delta{perr.Failed}, perr.Remaining...)
	return apply(ctx, perr.Subject, deltas, l)
}

func apply(ctx context.Context, subjectID primitive.ObjectID, deltas []Delta, l Linker) error {
	for i, d := range deltas {
		var err error
		switch d.Op {
		case OpRemove:
			err = l.Remove(ctx, d.Owner, subjectID)
		case OpAdd:
			err = l.Add(ctx, d.Owner, subjectID)
		}
		if err != nil {
			return &PartialError{
				Subject:   subjectID,
				Failed:    d,
				Remaining: append([]Delta(nil), deltas[i+1:]...),
				Err:       err,
			}
		}
	}
	return nil
}

func unique(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func index(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	m := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Funcs adapts a pair of functions to a Linker.
type Funcs struct {
	AddFn    func(ctx context.Context, ownerID, subjectID primitive.ObjectID) error
	RemoveFn func(ctx context.Context, ownerID, subjectID primitive.ObjectID) error
}

func (f Funcs) Add(ctx context.Context, ownerID, subjectID primitive.ObjectID) error {
	return f.AddFn(ctx, ownerID, subjectID)
}

func (f Funcs) Remove(ctx context.Context, ownerID, subjectID primitive.ObjectID) error {
	return f.RemoveFn(ctx, ownerID, subjectID)
}
