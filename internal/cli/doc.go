// Package cli implements the foldpredict command line: serve runs the web
// service, predict folds a single sequence without it and history prints the
// stored predictions.
package cli
