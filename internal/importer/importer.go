// Package importer reads tabular KPI rows from CSV and YAML files.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadRows reads KPI rows from the given path. The format is chosen by file
// extension: .csv for comma-separated rows with a header line, .yaml or .yml
// for a top-level list of mappings. Column names are lowercased and trimmed
// so downstream matching is case-insensitive.
func ReadRows(path string) ([]map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVRows(path)
	case ".yaml", ".yml":
		return readYAMLRows(path)
	default:
		return nil, fmt.Errorf("unsupported import format %q (expected .csv, .yaml or .yml)", filepath.Ext(path))
	}
}

// readCSVRows parses a CSV file whose first line names the columns.
func readCSVRows(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, col := range header {
		header[i] = normalizeColumn(col)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readYAMLRows parses a YAML file containing a top-level sequence of mappings.
// Scalar values of any YAML type are rendered to strings so the row shape
// matches the CSV path.
func readYAMLRows(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rows: %w", err)
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, entry := range raw {
		row := make(map[string]string, len(entry))
		for k, v := range entry {
			if v == nil {
				continue
			}
			row[normalizeColumn(k)] = strings.TrimSpace(fmt.Sprintf("%v", v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
