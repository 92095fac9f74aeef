// Package task runs the engine's recurring maintenance work: purging
// expired tombstones from the entity store, sweeping orphaned events out of
// the reconciler's pending buffer and re-evaluating due counts against the
// wall clock so threshold notifications fire even when nothing is written.
package task
