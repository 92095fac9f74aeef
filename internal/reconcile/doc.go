// Package reconcile consumes ordered change-event feeds from the backing
// persistence collaborator, one independent feed per entity collection,
// and applies them to the entity store.
//
// Feeds are independently ordered but not mutually ordered, so a child
// entity's Created event can arrive before its parent's. Events that cannot
// be applied yet are buffered in a pending map keyed by the ID blocking
// them, replayed in original order once that ID arrives, and dropped with a
// diagnostic after a bounded wait. Redelivering an already-applied event is
// a no-op: the store discards anything at or below its stored version.
package reconcile
