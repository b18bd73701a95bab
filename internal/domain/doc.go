// Package domain defines the core entities and interfaces for foldpredict.
//
// It holds the Prediction record, the summary metrics extracted from a
// structure file and the contracts implemented by the folding client, the
// structure file store and the prediction repository.
package domain
