// Package structure reads PDB coordinate files and derives the summary
// statistics reported for a prediction: mean B-factor (per-atom confidence
// for predicted models) and the molecular weight of the heavy atoms.
package structure
