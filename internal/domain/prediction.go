package domain

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"
)

// Metric is a rounded summary value that falls back to a marker string when
// it could not be computed.
type Metric struct {
	Value    float64
	Valid    bool
	Fallback string
}

func NewMetric(value float64) Metric {
	return Metric{Value: Round2(value), Valid: true}
}

func MissingMetric(fallback string) Metric {
	return Metric{Fallback: fallback}
}

func (m Metric) String() string {
	if !m.Valid {
		return m.Fallback
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(m.Fallback)
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*m = Metric{Value: value, Valid: true}
		return nil
	}
	var fallback string
	if err := json.Unmarshal(data, &fallback); err != nil {
		return err
	}
	*m = MissingMetric(fallback)
	return nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Prediction struct {
	ID              string    `json:"id"`
	Sequence        string    `json:"sequence"`
	SequenceLength  int       `json:"sequence_length"`
	File            string    `json:"file"`
	Confidence      Metric    `json:"confidence"`
	MolecularWeight Metric    `json:"molecular_weight"`
	CreatedAt       time.Time `json:"created_at" boltholdIndex:"CreatedAt"`
}

const structureFileExt = ".pdb"

// StructureFileName returns the stored file name for a prediction ID.
func StructureFileName(id string) string {
	return id + structureFileExt
}

// Result is the body returned by the prediction endpoint.
type Result struct {
	PDBURL          string `json:"pdb_url"`
	Confidence      Metric `json:"confidence"`
	MolecularWeight Metric `json:"molecular_weight"`
	SequenceLength  int    `json:"sequence_length"`
}

type Summary struct {
	Confidence      Metric
	MolecularWeight Metric
	Atoms           int
}

type FoldingClient interface {
	Fold(ctx context.Context, sequence string) ([]byte, error)
}

type StructureStore interface {
	Save(ctx context.Context, name string, data []byte) error
	// Open returns the stored file and its size in bytes.
	Open(name string) (io.ReadCloser, int64, error)
	Remove(name string) error
	Path(name string) (string, error)
}

type PredictionRepository interface {
	Insert(ctx context.Context, prediction *Prediction) error
	Get(ctx context.Context, id string) (*Prediction, error)
	List(ctx context.Context, limit int) ([]Prediction, error)
	Delete(ctx context.Context, id string) error
	FindOlderThan(ctx context.Context, cutoff time.Time) ([]Prediction, error)
	Close() error
}
