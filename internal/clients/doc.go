// Package clients provides adapters for external services.
//
// ESMFoldClient implements domain.FoldingClient against the ESM Atlas
// folding endpoint. HistoryClient reads the prediction history of a running
// foldpredict server. All calls honour the request context.
package clients
