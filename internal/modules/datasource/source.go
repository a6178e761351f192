// Package datasource provides the ReturnsDataSource capability: swappable
// loaders that produce a validated returns matrix from a file, a database
// or a synthetic generator, decoupling the optimization core from any
// specific data origin.
package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"madfolio/internal/modules/statistics"
)

// Source loads a returns matrix from somewhere.
type Source interface {
	Load(ctx context.Context) (*statistics.ReturnsMatrix, error)
}

// CSVSource reads a CSV file with one period-label column and one
// ratio-valued return column per asset, periods ascending.
type CSVSource struct {
	Path        string
	LabelColumn string // defaults to "Year-Month"
}

// Load parses and validates the CSV file.
func (s *CSVSource) Load(ctx context.Context) (*statistics.ReturnsMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labelColumn := s.LabelColumn
	if labelColumn == "" {
		labelColumn = "Year-Month"
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open returns file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse returns file %s: %w", s.Path, err)
	}
	if len(records) < 2 {
		return nil, &statistics.InvalidInputError{Reason: "returns file has no data rows"}
	}

	header := records[0]
	labelIdx := -1
	assets := make([]string, 0, len(header))
	assetIdx := make([]int, 0, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if name == labelColumn {
			labelIdx = i
			continue
		}
		assets = append(assets, name)
		assetIdx = append(assetIdx, i)
	}
	if labelIdx < 0 {
		return nil, &statistics.InvalidInputError{
			Reason: fmt.Sprintf("label column %q not found in header", labelColumn),
		}
	}

	labels := make([]string, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		label := strings.TrimSpace(record[labelIdx])
		if len(labels) > 0 && label <= labels[len(labels)-1] {
			return nil, &statistics.InvalidInputError{
				Reason: fmt.Sprintf("periods not ascending at %q (line %d)", label, lineNo+2),
			}
		}
		labels = append(labels, label)

		row := make([]float64, len(assetIdx))
		for j, idx := range assetIdx {
			if idx >= len(record) {
				return nil, &statistics.InvalidInputError{
					Reason: fmt.Sprintf("missing value for %s in period %s", assets[j], label),
				}
			}
			cell := strings.TrimSpace(record[idx])
			if cell == "" {
				return nil, &statistics.InvalidInputError{
					Reason: fmt.Sprintf("missing value for %s in period %s", assets[j], label),
				}
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &statistics.InvalidInputError{
					Reason: fmt.Sprintf("bad value %q for %s in period %s", cell, assets[j], label),
				}
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return statistics.NewReturnsMatrix(labels, assets, rows)
}
