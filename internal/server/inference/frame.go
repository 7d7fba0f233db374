// Package inference implements the prediction pipeline: validate an
// uploaded tabular sample batch, invoke the model capability, persist a
// report, and answer the caller. Each stage has a distinct failure kind;
// see common for the sentinels.
package inference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aquawatch/aquawatch/internal/common"
)

// Frame is a validated batch of samples: one row per sample, numeric
// feature columns only, header preserved for shape diagnostics.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

func (f *Frame) NumSamples() int  { return len(f.Rows) }
func (f *Frame) NumFeatures() int { return len(f.Columns) }

// ParseSamples reads a CSV upload with a header row into a Frame. The
// label column (ground truth used during training) is stripped when
// present; its absence is not an error.
//
// Failure kinds:
//   - common.ErrUnsupportedFormat: malformed CSV, ragged rows, or a
//     non-numeric feature cell
//   - common.ErrEmptyInput: no data rows after parsing
//   - common.ErrNoFeatures: no columns left after stripping the label
func ParseSamples(r io.Reader, labelColumn string) (*Frame, error) {

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}

	if len(records) == 0 {
		return nil, common.ErrEmptyInput
	}

	header := records[0]
	labelIdx := -1
	for idx, name := range header {
		if strings.TrimSpace(name) == labelColumn {
			labelIdx = idx
			break
		}
	}

	columns := make([]string, 0, len(header))
	for idx, name := range header {
		if idx == labelIdx {
			continue
		}
		columns = append(columns, strings.TrimSpace(name))
	}

	if len(records) == 1 {
		return nil, common.ErrEmptyInput
	}
	if len(columns) == 0 {
		return nil, common.ErrNoFeatures
	}

	rows := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		row := make([]float64, 0, len(columns))
		for idx, cell := range record {
			if idx == labelIdx {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: non-numeric value %q at row %d",
					common.ErrUnsupportedFormat, cell, line+1)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}

// IsValidationError reports whether err belongs to the 400-class upload
// failures.
func IsValidationError(err error) bool {
	return errors.Is(err, common.ErrUnsupportedFormat) ||
		errors.Is(err, common.ErrEmptyInput) ||
		errors.Is(err, common.ErrNoFeatures)
}
