// Package store implements the entity store: a normalized, versioned
// in-memory cache of decks, sections, cards, topics and per-user review
// state, keyed by ID and organized in a parent -> children tree.
//
// The store is the single source of truth for locally cached state. All
// mutation goes through Upsert and Remove, which apply last-writer-wins by
// version token, tombstone deletions for a bounded retention window and fan
// out change notifications to registered observers synchronously and in
// order: every observer sees a given mutation applied before the next
// mutation begins.
package store
