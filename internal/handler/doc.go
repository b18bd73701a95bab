// Package handler implements HTTP request handlers.
//
// This package provides HTTP endpoints for:
// - /: submission page
// - /predict: fold a sequence and summarise the structure
// - /static/:filename: stored structure files
// - /api/predictions: prediction history
// - /health and /metrics
package handler
