// Package events provides the domain event types the engine emits for
// external consumers such as a notifier or an analytics pipeline, and a
// simple in-memory emitter for dispatching them.
//
// The engine only emits events; it never formats or delivers messages
// itself. Handlers are registered by the embedding application.
package events
