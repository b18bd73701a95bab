// Package storage persists predictions.
//
// FileStore keeps structure files on disk under the static directory and
// writes them atomically. The prediction repository keeps the history of
// predictions in a BoltHold store.
package storage
