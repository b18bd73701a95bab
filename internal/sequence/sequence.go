// Package sequence normalises and validates amino-acid sequences and reads
// them from FASTA input.
package sequence

import (
	"fmt"
	"strings"

	"github.com/amaumene/foldpredict/internal/domain"
)

// Alphabet lists the accepted residue codes: the standard amino acids plus
// the ambiguity codes B, Z, X and the stop marker.
const Alphabet = "ABCDEFGHIKLMNPQRSTVWYZX*"

func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks an already normalised sequence.
func Validate(seq string, maxLen int) error {
	if seq == "" {
		return fmt.Errorf("%w: empty", domain.ErrInvalidSequence)
	}
	for i, r := range seq {
		if !strings.ContainsRune(Alphabet, r) {
			return fmt.Errorf("%w: character %q at position %d", domain.ErrInvalidSequence, r, i+1)
		}
	}
	if len(seq) > maxLen {
		return fmt.Errorf("%w: %d residues, max %d", domain.ErrSequenceTooLong, len(seq), maxLen)
	}
	return nil
}
