// Package domain defines the core business entities of the sync engine:
// decks, sections, cards, topics and the per-user review state attached to
// each card, together with the performance rating scale used by the
// spaced repetition scheduler.
package domain
