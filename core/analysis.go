package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/internal/importer"
	"github.com/kpilens/kpilens/internal/outwriter"
	"github.com/kpilens/kpilens/schema"
)

// ExecutorFunc defines the function signature for executing different kpilens modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteExtract reads a document, extracts KPI candidates, scores them and
// prints the ranked results. It serves as the main entry point for the
// 'extract' command.
func ExecuteExtract(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	text, err := readInput(cfg.InputPath)
	if err != nil {
		return err
	}

	runID := beginRun(cfg, mgr, start)

	candidates, err := NewPipeline().Extract(text, cfg.Kind, cfg.AsOf)
	if err != nil {
		return err
	}
	records := validateAll(candidates, cfg.AsOf)
	records = ScoreAll(ctx, cfg, records)
	ranked := RankRecords(records, cfg.ResultLimit)

	if cfg.SaveToStore {
		saveRecords(mgr, ranked)
	}
	endRun(mgr, runID, len(ranked))

	return outwriter.PrintRecordResults(ranked, cfg, time.Since(start))
}

// ExecuteImport loads structured rows from a CSV or YAML file, validates and
// scores them, and prints the ranked results.
func ExecuteImport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	rows, err := importer.ReadRows(cfg.InputPath)
	if err != nil {
		return err
	}

	runID := beginRun(cfg, mgr, start)

	candidates := make([]schema.KpiRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := RowToRecord(row, cfg.AsOf)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Skipping row %d", i+1), err)
			continue
		}
		candidates = append(candidates, rec)
	}
	records := validateAll(candidates, cfg.AsOf)
	records = ScoreAll(ctx, cfg, records)
	ranked := RankRecords(records, cfg.ResultLimit)

	if cfg.SaveToStore {
		saveRecords(mgr, ranked)
	}
	endRun(mgr, runID, len(ranked))

	return outwriter.PrintRecordResults(ranked, cfg, time.Since(start))
}

// ExecutePortfolio loads every persisted record, rescores it as of the
// configured clock, and prints portfolio rollups plus the ranked records.
func ExecutePortfolio(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	store := mgr.GetRecordStore()
	if store == nil {
		return fmt.Errorf("portfolio requires a record store, got backend %q", cfg.StoreBackend)
	}
	records, err := store.ListRecords()
	if err != nil {
		return err
	}

	records = ScoreAll(ctx, cfg, records)
	metrics := BuildPortfolioMetrics(records)
	ranked := RankRecords(records, cfg.ResultLimit)

	return outwriter.PrintPortfolioResults(metrics, ranked, cfg, time.Since(start))
}

// ScoreAll recomputes derived fields for every record using a worker pool of
// cfg.Workers goroutines. Each worker writes to a unique index, which is safe.
// Records keep their slice order.
func ScoreAll(ctx context.Context, cfg *contract.Config, records []schema.KpiRecord) []schema.KpiRecord {
	engine := NewEngine(cfg.Scoring)

	idxCh := make(chan int, len(records))
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Go(func() {
			for idx := range idxCh {
				if ctx.Err() != nil {
					return
				}
				d := engine.Score(records[idx], cfg.AsOf)
				records[idx].Derived = &d
			}
		})
	}
	for i := range records {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	return records
}

// rowColumnSynonyms maps tolerant header spellings onto canonical columns.
var rowColumnSynonyms = map[string]string{
	"kpi":           "name",
	"kpi_name":      "name",
	"kpi name":      "name",
	"metric":        "name",
	"current":       "current_value",
	"current value": "current_value",
	"actual":        "current_value",
	"value":         "current_value",
	"target":        "target_value",
	"target value":  "target_value",
	"baseline":      "baseline_value",
	"lead":          "owner",
	"responsible":   "owner",
	"updated":       "last_updated",
	"last updated":  "last_updated",
	"date":          "last_updated",
	"program":       "project",
	"objective":     "goal",
}

// RowToRecord maps one imported row onto a record. Keys are matched
// case-insensitively and common header synonyms are accepted. Imported rows
// carry full confidence since a human wrote them as data, not prose.
func RowToRecord(row map[string]string, now time.Time) (schema.KpiRecord, error) {
	cols := map[string]string{}
	for key, val := range row {
		k := strings.ToLower(strings.TrimSpace(key))
		if canonical, ok := rowColumnSynonyms[k]; ok {
			k = canonical
		}
		if v := strings.TrimSpace(val); v != "" {
			cols[k] = v
		}
	}

	rec := schema.KpiRecord{
		ID:         cols["id"],
		Name:       cols["name"],
		Project:    cols["project"],
		Goal:       cols["goal"],
		Owner:      cols["owner"],
		Status:     schema.Status(cols["status"]),
		Unit:       schema.ValueUnit(cols["unit"]),
		Confidence: 1.0,
	}
	if rec.Name == "" {
		return schema.KpiRecord{}, fmt.Errorf("row has no name column")
	}

	assign := func(col string, dst **float64) error {
		raw, ok := cols[col]
		if !ok {
			return nil
		}
		v, _, err := parseValueToken(raw)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		*dst = &v
		return nil
	}
	if err := assign("current_value", &rec.CurrentValue); err != nil {
		return schema.KpiRecord{}, err
	}
	if err := assign("target_value", &rec.TargetValue); err != nil {
		return schema.KpiRecord{}, err
	}
	if err := assign("baseline_value", &rec.BaselineValue); err != nil {
		return schema.KpiRecord{}, err
	}

	if raw, ok := cols["last_updated"]; ok {
		t, err := ParseDate(raw, now)
		if err != nil {
			return schema.KpiRecord{}, fmt.Errorf("column last_updated: %w", err)
		}
		rec.LastUpdated = t
	}
	return rec, nil
}

// validateAll runs the validator over every candidate, dropping the ones
// that fail with a warning instead of aborting the whole batch.
func validateAll(candidates []schema.KpiRecord, now time.Time) []schema.KpiRecord {
	validator := NewValidator()
	out := make([]schema.KpiRecord, 0, len(candidates))
	for _, cand := range candidates {
		rec, err := validator.Validate(cand, now)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Dropping record %q", cand.Name), err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// readInput reads the whole document, from stdin when the path is "-".
func readInput(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no input file given")
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// beginRun starts run tracking when a store is configured. Tracking failures
// degrade to warnings so they never block the analysis itself.
func beginRun(cfg *contract.Config, mgr contract.StoreManager, start time.Time) int64 {
	store := mgr.GetRecordStore()
	if store == nil {
		return 0
	}
	configParams := map[string]any{
		"kind":         string(cfg.Kind),
		"input_path":   cfg.InputPath,
		"workers":      cfg.Workers,
		"result_limit": cfg.ResultLimit,
	}
	runID, err := store.BeginRun(start, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

func endRun(mgr contract.StoreManager, runID int64, totalRecords int) {
	store := mgr.GetRecordStore()
	if store == nil || runID <= 0 {
		return
	}
	if err := store.EndRun(runID, time.Now(), totalRecords); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

func saveRecords(mgr contract.StoreManager, records []schema.KpiRecord) {
	store := mgr.GetRecordStore()
	if store == nil {
		contract.LogWarn("Cannot save records", fmt.Errorf("no record store configured"))
		return
	}
	for _, rec := range records {
		if err := store.SaveRecord(rec); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to save record %q", rec.Name), err)
		}
	}
}
