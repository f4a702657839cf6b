package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kpilens/kpilens/schema"
)

// defaultMaxGap is how many non-matching lines may separate two labeled
// lines before they split into separate candidate windows.
const defaultMaxGap = 3

// Pipeline turns unstructured project text into candidate KPI records.
type Pipeline struct {
	maxGap int
}

// NewPipeline returns a pipeline with the default window grouping.
func NewPipeline() *Pipeline {
	return &Pipeline{maxGap: defaultMaxGap}
}

// Extract scans a document and returns one KpiRecord per candidate window.
// It always returns at least one record for a readable document: when no
// candidate is found, a template record with zero confidence is emitted so
// downstream scoring has something to work with.
func (p *Pipeline) Extract(text string, kind schema.DocumentKind, now time.Time) ([]schema.KpiRecord, error) {
	if _, ok := schema.ValidDocumentKinds[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrUnsupportedDocument, kind)
	}
	if !utf8.ValidString(text) || strings.ContainsRune(text, '\x00') {
		return nil, fmt.Errorf("%w: content is not readable text", ErrUnsupportedDocument)
	}

	lines := strings.Split(text, "\n")
	windows := p.findWindows(lines, kind)

	records := make([]schema.KpiRecord, 0, len(windows))
	for _, w := range windows {
		if rec, ok := p.buildRecord(lines, w, kind, now); ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		records = append(records, p.templateRecord(text, kind, now))
	}
	return records, nil
}

// window is a half-open [start, end) line range holding one KPI candidate.
// criterion marks a single success-criterion line from a charter.
type window struct {
	start, end int
	criterion  bool
}

// findWindows groups labeled lines into candidate windows. A section heading
// always starts a new window, and a run of more than maxGap quiet lines
// closes the current one. In a charter's success criteria section every
// criterion line becomes its own window.
func (p *Pipeline) findWindows(lines []string, kind schema.DocumentKind) []window {
	interesting := make([]bool, len(lines))
	for i, line := range lines {
		interesting[i] = lineIsInteresting(line, kind)
	}

	var windows []window
	cur := window{start: -1}
	flush := func() {
		if cur.start >= 0 {
			windows = append(windows, cur)
			cur = window{start: -1}
		}
	}
	lastHit := -1
	inCriteria := false
	for i, line := range lines {
		if sectionHeadingRe.MatchString(line) {
			flush()
			inCriteria = kind == schema.CharterDoc && successCriteriaRe.MatchString(line)
			continue
		}
		if inCriteria && markdownHeadingRe.MatchString(line) {
			flush()
			inCriteria = false
		}
		if inCriteria && charterCriterionRe.MatchString(line) {
			flush()
			windows = append(windows, window{start: i, end: i + 1, criterion: true})
			lastHit = i
			continue
		}
		if !interesting[i] {
			if lastHit >= 0 && i-lastHit > p.maxGap {
				flush()
			}
			continue
		}
		if cur.start < 0 {
			cur.start = i
		}
		cur.end = i + 1
		lastHit = i
	}
	flush()
	return windows
}

func lineIsInteresting(line string, kind schema.DocumentKind) bool {
	for _, rules := range fieldRules {
		for _, r := range rules {
			if r.Pattern.MatchString(line) {
				return true
			}
		}
	}
	for _, mp := range measurementPatterns {
		if mp.re.MatchString(line) {
			return true
		}
	}
	if kind == schema.RequirementsDoc && requirementSentenceRe.MatchString(line) {
		return true
	}
	if kind == schema.CharterDoc && charterCriterionRe.MatchString(line) {
		return true
	}
	return false
}

// fieldHit is one settled field in a window.
type fieldHit struct {
	raw  string
	span schema.Span
}

// buildRecord assembles a record from one candidate window. Windows that
// never name a KPI are discarded.
func (p *Pipeline) buildRecord(lines []string, w window, kind schema.DocumentKind, now time.Time) (schema.KpiRecord, bool) {
	acceptValue := func(s string) bool {
		_, _, err := parseValueToken(s)
		return err == nil
	}
	accepts := map[FieldKey]func(string) bool{
		FieldTargetValue:  acceptValue,
		FieldCurrentValue: acceptValue,
		FieldDate: func(s string) bool {
			_, err := ParseDate(s, now)
			return err == nil
		},
	}

	hits := map[FieldKey]fieldHit{}
	unparsed := 0
	for field, rules := range fieldRules {
		hit, ok, matched := matchField(lines, w, rules, accepts[field])
		switch {
		case ok:
			hits[field] = hit
		case matched:
			// A labeled line was present but no rule yielded a parseable
			// value. The field stays unset and confidence takes a hit.
			unparsed++
		}
	}

	name := strings.TrimSpace(hits[FieldName].raw)
	if name == "" && kind == schema.RequirementsDoc {
		if hit, ok := matchRequirementSentence(lines, w); ok {
			name = hit.raw
			hits[FieldName] = hit
		}
	}
	if name == "" && w.criterion {
		if hit, ok := matchCharterCriterion(lines, w); ok {
			name = hit.raw
			hits[FieldName] = hit
		}
	}
	if name == "" {
		return schema.KpiRecord{}, false
	}

	rec := schema.KpiRecord{
		ID:         uuid.NewString(),
		Name:       name,
		Confidence: 0.9,
		Unit:       schema.UnitRaw,
		SourceKind: kind,
		Provenance: map[string]schema.Span{},
	}
	penalty := func() {
		rec.Confidence -= 0.1
		if rec.Confidence < 0.1 {
			rec.Confidence = 0.1
		}
	}
	mark := func(field FieldKey) {
		rec.Provenance[string(field)] = hits[field].span
	}
	mark(FieldName)
	for i := 0; i < unparsed; i++ {
		penalty()
	}

	if h, ok := hits[FieldProject]; ok {
		rec.Project = strings.TrimSpace(h.raw)
		mark(FieldProject)
	}
	if h, ok := hits[FieldGoal]; ok {
		rec.Goal = strings.TrimSpace(h.raw)
		mark(FieldGoal)
	}
	if h, ok := hits[FieldOwner]; ok {
		rec.Owner = strings.TrimSpace(h.raw)
		mark(FieldOwner)
	}
	if h, ok := hits[FieldStatus]; ok {
		rec.Status = schema.Status(strings.ToLower(strings.TrimSpace(h.raw)))
		mark(FieldStatus)
	}
	if h, ok := hits[FieldTargetValue]; ok {
		if v, unit, err := parseValueToken(h.raw); err == nil {
			rec.TargetValue = &v
			rec.Unit = mergeUnit(rec.Unit, unit)
			mark(FieldTargetValue)
		}
	}
	if h, ok := hits[FieldCurrentValue]; ok {
		if v, unit, err := parseValueToken(h.raw); err == nil {
			rec.CurrentValue = &v
			rec.Unit = mergeUnit(rec.Unit, unit)
			mark(FieldCurrentValue)
		}
	}
	if h, ok := hits[FieldDate]; ok {
		if t, err := ParseDate(h.raw, now); err == nil {
			rec.LastUpdated = t
			mark(FieldDate)
		}
	}

	if rec.CurrentValue == nil || rec.TargetValue == nil {
		p.applyMeasurements(lines, w, &rec)
	}
	if rec.CurrentValue == nil && rec.TargetValue == nil && rec.Confidence > 0.5 {
		rec.Confidence = 0.5
	}

	if rec.CurrentValue != nil {
		date := rec.LastUpdated
		if date.IsZero() {
			date = now
		}
		rec.AppendSnapshot(schema.Snapshot{Date: date, Value: *rec.CurrentValue})
	}
	return rec, true
}

// applyMeasurements fills missing numeric fields from prose measurements
// inside the window. The first matching pattern settles the pair.
func (p *Pipeline) applyMeasurements(lines []string, w window, rec *schema.KpiRecord) {
	for i := w.start; i < w.end; i++ {
		for _, mp := range measurementPatterns {
			m := mp.re.FindStringSubmatch(lines[i])
			if m == nil {
				continue
			}
			cur, tgt, isPercent, ok := mp.apply(m)
			if !ok {
				continue
			}
			if rec.CurrentValue == nil && cur != nil {
				rec.CurrentValue = cur
				rec.Provenance[string(FieldCurrentValue)] = schema.Span{Line: i + 1, Offset: strings.Index(lines[i], m[0])}
			}
			if rec.TargetValue == nil && tgt != nil {
				rec.TargetValue = tgt
				rec.Provenance[string(FieldTargetValue)] = schema.Span{Line: i + 1, Offset: strings.Index(lines[i], m[0])}
			}
			if isPercent {
				rec.Unit = mergeUnit(rec.Unit, schema.UnitPercent)
			}
			return
		}
	}
}

// matchField runs a field's rule table over the window. The first rule that
// yields a value passing accept settles the field (a nil accept takes any
// non-empty match); a rule whose matches all fail accept falls through to
// the next rule. Within a rule the value comes from the last accepted match,
// so later restatements win, while the span points at the first mention.
// matched reports whether any rule matched text at all, even unparseable.
func matchField(lines []string, w window, rules []Rule, accept func(string) bool) (hit fieldHit, ok, matched bool) {
	for _, r := range rules {
		found := false
		for i := w.start; i < w.end; i++ {
			m := r.Pattern.FindStringSubmatchIndex(lines[i])
			if m == nil || m[2] < 0 {
				continue
			}
			raw := strings.TrimSpace(lines[i][m[2]:m[3]])
			if raw == "" {
				continue
			}
			matched = true
			if accept != nil && !accept(raw) {
				continue
			}
			if !found {
				hit.span = schema.Span{Line: i + 1, Offset: m[2]}
				found = true
			}
			hit.raw = raw
		}
		if found {
			return hit, true, true
		}
	}
	return fieldHit{}, false, matched
}

func matchRequirementSentence(lines []string, w window) (fieldHit, bool) {
	for i := w.start; i < w.end; i++ {
		if m := requirementSentenceRe.FindString(lines[i]); m != "" {
			return fieldHit{
				raw:  strings.TrimSuffix(strings.TrimSpace(m), "."),
				span: schema.Span{Line: i + 1, Offset: 0},
			}, true
		}
	}
	return fieldHit{}, false
}

// matchCharterCriterion names a candidate after the criterion text of a
// single-line success criteria window, bullet stripped.
func matchCharterCriterion(lines []string, w window) (fieldHit, bool) {
	m := charterCriterionRe.FindStringSubmatchIndex(lines[w.start])
	if m == nil || m[2] < 0 {
		return fieldHit{}, false
	}
	raw := strings.TrimSpace(lines[w.start][m[2]:m[3]])
	if raw == "" {
		return fieldHit{}, false
	}
	return fieldHit{raw: raw, span: schema.Span{Line: w.start + 1, Offset: m[2]}}, true
}

// parseValueToken parses a numeric token and reports the unit it implies.
func parseValueToken(token string) (float64, schema.ValueUnit, error) {
	s := strings.TrimSpace(token)
	if percentSuffixRe.MatchString(s) {
		v, err := ParsePercent(s)
		return v, schema.UnitPercent, err
	}
	if strings.ContainsAny(s, "$€£¥") {
		v, err := ParseCurrency(s)
		return v, schema.UnitCurrency, err
	}
	v, err := ParseNumber(s)
	return v, schema.UnitRaw, err
}

// mergeUnit upgrades a raw unit to a more specific one but never downgrades.
func mergeUnit(cur, next schema.ValueUnit) schema.ValueUnit {
	if cur == schema.UnitRaw && next != schema.UnitRaw {
		return next
	}
	return cur
}

// templateRecord is the fallback for documents with no detectable KPI.
func (p *Pipeline) templateRecord(text string, kind schema.DocumentKind, now time.Time) schema.KpiRecord {
	name := templateNames[kind]
	if rules, ok := fieldRules[FieldProject]; ok {
		all := strings.Split(text, "\n")
		if hit, found, _ := matchField(all, window{start: 0, end: len(all)}, rules, nil); found {
			name = strings.TrimSpace(hit.raw) + " delivery"
		}
	}
	return schema.KpiRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Status:      schema.NotStarted,
		Unit:        schema.UnitRaw,
		LastUpdated: now,
		Confidence:  0,
		SourceKind:  kind,
		Provenance:  map[string]schema.Span{},
	}
}

var templateNames = map[schema.DocumentKind]string{
	schema.SOWDoc:          "Statement of work delivery",
	schema.RequirementsDoc: "Requirements completion",
	schema.CharterDoc:      "Charter objectives",
	schema.FreeTextDoc:     "Document objectives",
}
