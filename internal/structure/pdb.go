package structure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

var ErrNoAtoms = errors.New("no atom records found")

type Atom struct {
	Serial     int
	Name       string
	AltLoc     byte
	ResName    string
	ChainID    byte
	ResSeq     int
	ICode      byte
	X, Y, Z    float64
	Occupancy  float64
	BFactor    float64
	HasBFactor bool
	Element    string
	Hetero     bool
}

// Model is the first model of a PDB file.
type Model struct {
	Atoms []Atom
}

// Parse reads ATOM and HETATM records of the first model in r. Atoms without
// an alternate location are kept; within each residue only the first
// alternate location listed is.
func Parse(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	model := &Model{}
	firstAlt := make(map[residueKey]byte)
	models := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		record := recordName(line)

		switch record {
		case "MODEL":
			models++
			if models > 1 {
				return finish(model)
			}
			continue
		case "ENDMDL", "END":
			if len(model.Atoms) > 0 {
				return finish(model)
			}
			continue
		case "ATOM", "HETATM":
		default:
			continue
		}

		atom, err := parseAtom(line, record == "HETATM")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if atom.AltLoc != ' ' {
			key := residueKeyOf(atom)
			alt, seen := firstAlt[key]
			if !seen {
				firstAlt[key] = atom.AltLoc
			} else if atom.AltLoc != alt {
				continue
			}
		}
		model.Atoms = append(model.Atoms, atom)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pdb: %w", err)
	}
	return finish(model)
}

type residueKey struct {
	chain  byte
	resSeq int
	iCode  byte
}

func residueKeyOf(atom Atom) residueKey {
	return residueKey{chain: atom.ChainID, resSeq: atom.ResSeq, iCode: atom.ICode}
}

func finish(model *Model) (*Model, error) {
	if len(model.Atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return model, nil
}

func recordName(line string) string {
	if len(line) > 6 {
		line = line[:6]
	}
	return strings.TrimSpace(line)
}

func parseAtom(line string, hetero bool) (Atom, error) {
	if len(line) < 54 {
		return Atom{}, fmt.Errorf("truncated coordinate record (%d columns)", len(line))
	}

	atom := Atom{
		Name:    strings.TrimSpace(line[12:16]),
		AltLoc:  line[16],
		ResName: strings.TrimSpace(line[17:20]),
		ChainID: line[21],
		ICode:   line[26],
		Hetero:  hetero,
	}

	var err error
	if atom.Serial, err = parseInt(line[6:11]); err != nil {
		return Atom{}, fmt.Errorf("atom serial: %w", err)
	}
	if atom.ResSeq, err = parseInt(line[22:26]); err != nil {
		return Atom{}, fmt.Errorf("residue number: %w", err)
	}
	if atom.X, err = parseFloat(line[30:38]); err != nil {
		return Atom{}, fmt.Errorf("x coordinate: %w", err)
	}
	if atom.Y, err = parseFloat(line[38:46]); err != nil {
		return Atom{}, fmt.Errorf("y coordinate: %w", err)
	}
	if atom.Z, err = parseFloat(line[46:54]); err != nil {
		return Atom{}, fmt.Errorf("z coordinate: %w", err)
	}

	if field := column(line, 54, 60); field != "" {
		if atom.Occupancy, err = parseFloat(field); err != nil {
			return Atom{}, fmt.Errorf("occupancy: %w", err)
		}
	}
	if field := column(line, 60, 66); field != "" {
		if atom.BFactor, err = parseFloat(field); err != nil {
			return Atom{}, fmt.Errorf("b-factor: %w", err)
		}
		atom.HasBFactor = true
	}

	atom.Element = strings.ToUpper(column(line, 76, 78))
	if atom.Element == "" {
		atom.Element = inferElement(line[12:16], hetero)
	}
	return atom, nil
}

// column returns the trimmed text between the 0-based offsets, clipped to
// the line length.
func column(line string, start, end int) string {
	if len(line) <= start {
		return ""
	}
	if len(line) < end {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

func parseInt(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}
	return strconv.Atoi(field)
}

func parseFloat(field string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}

// inferElement guesses the element from the 4-column atom name field when
// the element columns are blank. Names of one-letter elements start in the
// second column; a letter in the first column marks a two-letter element,
// except for the four-character hydrogen names of standard residues.
func inferElement(name string, hetero bool) string {
	if len(name) < 4 {
		name += strings.Repeat(" ", 4-len(name))
	}
	switch {
	case name[0] == ' ':
		return firstLetter(name[1:])
	case unicode.IsDigit(rune(name[0])):
		return firstLetter(name[1:])
	case !hetero && (name[0] == 'H' || name[0] == 'h'):
		return "H"
	}
	two := strings.ToUpper(name[:2])
	if _, ok := atomicWeights[two]; ok && unicode.IsLetter(rune(name[1])) {
		return two
	}
	return strings.ToUpper(name[:1])
}

func firstLetter(s string) string {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return strings.ToUpper(string(r))
		}
	}
	return ""
}
