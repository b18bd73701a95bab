// Package service implements the prediction workflow.
//
// PredictionService validates a sequence, asks the folding client for a
// structure, stores the returned file, summarises it and records the result.
// CleanupService purges predictions older than the configured retention.
package service
