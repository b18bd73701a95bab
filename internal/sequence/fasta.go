package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Record struct {
	Header   string
	Sequence string
}

// ParseFasta reads FASTA records from r. Lines beginning with '>' start a
// record; sequence lines are concatenated with whitespace removed. Input
// without any header is read as a single unnamed record.
func ParseFasta(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var records []Record
	var current *Record
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Sequence = body.String()
			records = append(records, *current)
		}
		body.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			current = &Record{Header: strings.TrimSpace(line[1:])}
			continue
		}
		if current == nil {
			current = &Record{}
		}
		body.WriteString(strings.Join(strings.Fields(line), ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fasta: %w", err)
	}
	flush()
	return records, nil
}
