// Package session orchestrates interactive review: it draws cards from the
// due-set index (normal mode) or from the whole deck (cram mode), runs each
// submitted rating through the scheduler, applies the resulting schedule
// mutation to the entity store and commits it to the backing persistence
// collaborator.
//
// Cram is rehearsal: ratings feed the "cards remembered" tally but never
// touch the spaced repetition schedule.
package session
