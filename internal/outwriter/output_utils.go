package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
	"golang.org/x/term"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// labelFunc returns the label formatter matching the color configuration.
func labelFunc(cfg *contract.Config) func(float64) string {
	if cfg.UseColors {
		return contract.GetColorLabel
	}
	return contract.GetPlainLabel
}

// formatValue renders a nullable KPI value with its unit suffix.
func formatValue(v *float64, unit schema.ValueUnit, fmtFloat func(float64) string) string {
	if v == nil {
		return "-"
	}
	switch unit {
	case schema.UnitPercent:
		return fmtFloat(*v) + "%"
	case schema.UnitCurrency:
		return "$" + fmtFloat(*v)
	default:
		return fmtFloat(*v)
	}
}

// formatRiskFactors renders the active risk factors as a compact list.
func formatRiskFactors(d *schema.DerivedFields) string {
	if d == nil || len(d.RiskFactors) == 0 {
		return "None"
	}
	parts := make([]string, len(d.RiskFactors))
	for i, f := range d.RiskFactors {
		parts[i] = strings.ReplaceAll(string(f), "_", " ")
	}
	return strings.Join(parts, ", ")
}

// factorBreakdown holds a key-value pair from the Breakdown map representing a factor's contribution.
type factorBreakdown struct {
	Name  string
	Value float64
}

const (
	factorContribMinimum = 0.5
	topNFactors          = 3
)

// formatTopFactorBreakdown computes the top factor components that contribute to the health score.
func formatTopFactorBreakdown(d *schema.DerivedFields) string {
	if d == nil {
		return "Not applicable"
	}

	var factors []factorBreakdown
	for k, v := range d.Breakdown {
		// Only include meaningful contributions
		if v >= factorContribMinimum {
			factors = append(factors, factorBreakdown{Name: string(k), Value: v})
		}
	}
	if len(factors) == 0 {
		return "Not applicable"
	}

	// Highest weighted contribution first
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].Value != factors[j].Value {
			return factors[i].Value > factors[j].Value
		}
		return factors[i].Name < factors[j].Name
	})

	limit := min(len(factors), topNFactors)
	parts := make([]string, 0, limit)
	for i := range limit {
		parts = append(parts, factors[i].Name)
	}
	return strings.Join(parts, " > ")
}

// derivedOf returns the derived fields or a zero value when scoring never ran.
func derivedOf(rec *schema.KpiRecord) schema.DerivedFields {
	if rec.Derived == nil {
		return schema.DerivedFields{}
	}
	return *rec.Derived
}

// getMaxTableNameWidth calculates the maximum width for KPI names in table output
// based on terminal width and table configuration.
func getMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for fixed columns with table formatting
	baseWidth := 55 // Rank + Status + Current + Target + Health + Risk + Label with borders/padding

	// Add detail columns with formatting
	if cfg.Detail {
		baseWidth += 40 // Factor contribution columns with formatting
	}

	// Add explain columns
	if cfg.Explain {
		baseWidth += 45 // Top factors + risk factor columns with formatting
	}

	// Reserve space for table borders, separators, and padding
	baseWidth += 15

	// Calculate available space for the name
	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable name width
		return 15
	}
	if available > 50 {
		// Maximum name width to prevent overly long names
		return 50
	}
	return available
}
