package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kpilens/kpilens/schema"
)

// FieldError is one validation failure tied to a record field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field failure found in one record so the
// caller can report them all at once.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// statusSynonyms maps free-form status text onto canonical statuses.
// RAG color codes and common standup phrasings are all accepted.
var statusSynonyms = map[string]schema.Status{
	"done":            schema.Achieved,
	"complete":        schema.Achieved,
	"completed":       schema.Achieved,
	"finished":        schema.Achieved,
	"achieved":        schema.Achieved,
	"met":             schema.Achieved,
	"g":               schema.OnTrack,
	"green":           schema.OnTrack,
	"on track":        schema.OnTrack,
	"on_track":        schema.OnTrack,
	"in progress":     schema.OnTrack,
	"in_progress":     schema.OnTrack,
	"ongoing":         schema.OnTrack,
	"healthy":         schema.OnTrack,
	"y":               schema.AtRisk,
	"yellow":          schema.AtRisk,
	"amber":           schema.AtRisk,
	"r":               schema.AtRisk,
	"red":             schema.AtRisk,
	"critical":        schema.AtRisk,
	"at risk":         schema.AtRisk,
	"at_risk":         schema.AtRisk,
	"needs attention": schema.AtRisk,
	"warning":         schema.AtRisk,
	"behind":          schema.AtRisk,
	"blocked":         schema.AtRisk,
	"stalled":         schema.Stalled,
	"stuck":           schema.Stalled,
	"on hold":         schema.Stalled,
	"paused":          schema.Stalled,
	"not started":     schema.NotStarted,
	"not_started":     schema.NotStarted,
	"new":             schema.NotStarted,
	"pending":         schema.NotStarted,
	"todo":            schema.NotStarted,
	"planned":         schema.NotStarted,
}

// Validator normalizes and checks records before scoring or persistence.
type Validator struct{}

// NewValidator returns a record validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a record and returns a normalized copy. The input is
// never mutated; on any failure the error lists every bad field and no
// partial normalization leaks out.
func (v *Validator) Validate(rec schema.KpiRecord, now time.Time) (schema.KpiRecord, error) {
	out := rec
	out.History = rec.CloneHistory()
	var errs ValidationErrors

	if strings.TrimSpace(out.Name) == "" {
		errs = append(errs, FieldError{"name", "must not be empty"})
	}
	out.Name = strings.TrimSpace(out.Name)

	checkValue := func(field string, val *float64) {
		if val == nil {
			return
		}
		if math.IsNaN(*val) || math.IsInf(*val, 0) {
			errs = append(errs, FieldError{field, "must be finite"})
		} else if *val < 0 {
			errs = append(errs, FieldError{field, "must not be negative"})
		}
	}
	checkValue("current_value", out.CurrentValue)
	checkValue("target_value", out.TargetValue)
	checkValue("baseline_value", out.BaselineValue)

	if out.Unit == "" {
		out.Unit = schema.UnitRaw
	}
	if _, ok := schema.ValidUnits[out.Unit]; !ok {
		errs = append(errs, FieldError{"unit", fmt.Sprintf("unknown unit %q", out.Unit)})
	}
	if out.Unit == schema.UnitPercent {
		checkBound := func(field string, val *float64) {
			if val != nil && (*val < 0 || *val > 100) {
				errs = append(errs, FieldError{field, "percent values must be within 0-100"})
			}
		}
		checkBound("target_value", out.TargetValue)
		checkBound("baseline_value", out.BaselineValue)
	}

	status, err := normalizeStatus(out.Status)
	if err != nil {
		errs = append(errs, FieldError{"status", err.Error()})
	} else if status == "" {
		status = inferStatus(out)
	}
	out.Status = status

	if out.LastUpdated.After(now.Add(24 * time.Hour)) {
		errs = append(errs, FieldError{"last_updated", "must not be in the future"})
	}

	if len(errs) > 0 {
		return schema.KpiRecord{}, errs
	}

	// Defaults apply only once the record is known to be valid.
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if strings.TrimSpace(out.Owner) == "" {
		out.Owner = schema.DefaultOwner
	}
	if strings.TrimSpace(out.Project) == "" {
		out.Project = schema.DefaultProject
	}
	if strings.TrimSpace(out.Goal) == "" {
		out.Goal = schema.DefaultGoal
	}
	if out.LastUpdated.IsZero() {
		out.LastUpdated = now
	}
	out.Confidence = clamp(out.Confidence, 0, 1)
	if out.CurrentValue != nil {
		// AppendSnapshot overwrites a same-day entry, so re-validating a
		// record never duplicates history while a value that returns to an
		// earlier reading still gets its new date recorded.
		out.AppendSnapshot(schema.Snapshot{Date: out.LastUpdated, Value: *out.CurrentValue})
	}
	return out, nil
}

// normalizeStatus resolves synonyms onto canonical statuses. An empty status
// stays empty here so the caller can infer one from the values.
func normalizeStatus(s schema.Status) (schema.Status, error) {
	key := strings.ToLower(strings.TrimSpace(string(s)))
	if key == "" {
		return "", nil
	}
	if _, ok := schema.ValidStatuses[schema.Status(key)]; ok {
		return schema.Status(key), nil
	}
	if canonical, ok := statusSynonyms[key]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// inferStatus derives a status from the numeric fields when none was given:
// at or past the target means achieved, any movement off the baseline means
// on track, everything else has not started.
func inferStatus(rec schema.KpiRecord) schema.Status {
	if rec.CurrentValue == nil || rec.TargetValue == nil {
		return schema.NotStarted
	}
	baseline := 0.0
	if rec.BaselineValue != nil {
		baseline = *rec.BaselineValue
	}
	cur, tgt := *rec.CurrentValue, *rec.TargetValue
	switch {
	case tgt >= baseline && cur >= tgt, tgt < baseline && cur <= tgt:
		return schema.Achieved
	case cur != baseline:
		return schema.OnTrack
	default:
		return schema.NotStarted
	}
}
