// Package srs implements the spaced repetition scheduler: a deterministic
// rating policy mapping performance ratings to interval and ease factor
// updates, and the per-card schedule state machine built on top of it.
package srs
