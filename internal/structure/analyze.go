package structure

import (
	"fmt"
	"io"

	"github.com/amaumene/foldpredict/internal/domain"
)

const (
	confidenceUnavailable = "N/A"
	weightUnavailable     = "Unknown"
)

// Analyze computes the mean B-factor over all atoms and the mass of all
// non-hydrogen atoms.
func Analyze(m *Model) domain.Summary {
	return domain.Summary{
		Confidence:      meanBFactor(m.Atoms),
		MolecularWeight: heavyAtomMass(m.Atoms),
		Atoms:           len(m.Atoms),
	}
}

// Summarize parses r and analyses the first model.
func Summarize(r io.Reader) (domain.Summary, error) {
	model, err := Parse(r)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: %w", domain.ErrProcessing, err)
	}
	return Analyze(model), nil
}

func meanBFactor(atoms []Atom) domain.Metric {
	if len(atoms) == 0 {
		return domain.MissingMetric(confidenceUnavailable)
	}
	var sum float64
	for _, atom := range atoms {
		if !atom.HasBFactor {
			return domain.MissingMetric(confidenceUnavailable)
		}
		sum += atom.BFactor
	}
	return domain.NewMetric(sum / float64(len(atoms)))
}

func heavyAtomMass(atoms []Atom) domain.Metric {
	var mass float64
	for _, atom := range atoms {
		if atom.Element == "H" {
			continue
		}
		w, ok := AtomicWeight(atom.Element)
		if !ok {
			return domain.MissingMetric(weightUnavailable)
		}
		mass += w
	}
	return domain.NewMetric(mass)
}
