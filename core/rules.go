package core

import "regexp"

// FieldKey identifies a KPI field a rule extracts.
type FieldKey string

const (
	FieldName         FieldKey = "name"
	FieldProject      FieldKey = "project"
	FieldGoal         FieldKey = "goal"
	FieldOwner        FieldKey = "owner"
	FieldStatus       FieldKey = "status"
	FieldTargetValue  FieldKey = "target_value"
	FieldCurrentValue FieldKey = "current_value"
	FieldDate         FieldKey = "last_updated"
)

// Rule is one labeled-line pattern for a field. Lower priority wins first,
// and the matched value is capture group 1.
type Rule struct {
	Field    FieldKey
	Priority int
	Pattern  *regexp.Regexp
}

// fieldRules are the ordered per-field pattern tables for labeled lines.
// Each list runs top to bottom, and the first rule that yields a parseable
// value settles the field.
var fieldRules = map[FieldKey][]Rule{
	FieldName: {
		{FieldName, 1, regexp.MustCompile(`(?im)^\s*(?:kpi|metric|measure|indicator)\s*(?:name)?\s*[:\-]\s*(.+)$`)},
		{FieldName, 2, regexp.MustCompile(`(?im)^\s*(?:performance indicator|success metric)\s*[:\-]\s*(.+)$`)},
	},
	FieldProject: {
		{FieldProject, 1, regexp.MustCompile(`(?im)^\s*(?:project|program|initiative|workstream)\s*(?:name)?\s*[:\-]\s*(.+)$`)},
	},
	FieldGoal: {
		{FieldGoal, 1, regexp.MustCompile(`(?im)^\s*(?:goal|objective|outcome|deliverable)\s*[:\-]\s*(.+)$`)},
	},
	FieldOwner: {
		{FieldOwner, 1, regexp.MustCompile(`(?im)^\s*(?:owner|responsible|lead|assigned to|accountable|project manager)\s*[:\-]\s*(.+)$`)},
	},
	FieldStatus: {
		{FieldStatus, 1, regexp.MustCompile(`(?im)^\s*(?:status|health|rag)\s*[:\-]\s*(.+)$`)},
	},
	FieldTargetValue: {
		{FieldTargetValue, 1, regexp.MustCompile(`(?im)^\s*(?:target|goal value|objective value)\s*[:\-]\s*(.+)$`)},
		{FieldTargetValue, 2, regexp.MustCompile(`(?i)\b(?:target(?:ing)?|achieve|reach)\s+(?:of\s+)?([$€£]?[\d,]+(?:\.\d+)?\s*%?)`)},
	},
	FieldCurrentValue: {
		{FieldCurrentValue, 1, regexp.MustCompile(`(?im)^\s*(?:current|actual|baseline value|value)\s*[:\-]\s*(.+)$`)},
		{FieldCurrentValue, 2, regexp.MustCompile(`(?i)\bcurrently\s+(?:at\s+)?([$€£]?[\d,]+(?:\.\d+)?\s*%?)`)},
	},
	FieldDate: {
		{FieldDate, 1, regexp.MustCompile(`(?im)^\s*(?:last updated|updated|as of|date)\s*[:\-]\s*(.+)$`)},
	},
}

// measurementPattern extracts current/target pairs from prose, such as
// "12 of 20 stores migrated" or "increase conversion by 15%".
type measurementPattern struct {
	re *regexp.Regexp
	// apply maps the regex captures onto the measurement result.
	apply func(m []string) (current, target *float64, isPercent bool, ok bool)
}

// measurementPatterns run in order against a candidate window and the first
// match settles the numeric pair.
var measurementPatterns = []measurementPattern{
	// "12/20" or "12 of 20"
	{
		re: regexp.MustCompile(`(?i)\b([\d,]+(?:\.\d+)?)\s*(?:/|of|out of)\s*([\d,]+(?:\.\d+)?)\b`),
		apply: func(m []string) (*float64, *float64, bool, bool) {
			cur, err1 := ParseNumber(m[1])
			tgt, err2 := ParseNumber(m[2])
			if err1 != nil || err2 != nil {
				return nil, nil, false, false
			}
			return &cur, &tgt, false, true
		},
	},
	// "increase X by 15%" or "reduce Y by 20%": the percentage is the target
	// with an implied zero baseline toward it.
	{
		re: regexp.MustCompile(`(?i)\b(?:increase|improve|grow|raise|reduce|decrease|cut|lower)\b[^.\n]*?\bby\s+([\d,]+(?:\.\d+)?)\s*(?:%|percent)`),
		apply: func(m []string) (*float64, *float64, bool, bool) {
			tgt, err := ParsePercent(m[1])
			if err != nil {
				return nil, nil, false, false
			}
			return nil, &tgt, true, true
		},
	},
	// bare percentage in prose: a current reading against an implied 100.
	{
		re: regexp.MustCompile(`(?i)\b([\d,]+(?:\.\d+)?)\s*(?:%|percent)\b`),
		apply: func(m []string) (*float64, *float64, bool, bool) {
			cur, err := ParsePercent(m[1])
			if err != nil {
				return nil, nil, false, false
			}
			hundred := 100.0
			return &cur, &hundred, true, true
		},
	},
}

// requirementSentenceRe finds normative requirement sentences that carry a
// measurable quantity, used for requirements documents.
var requirementSentenceRe = regexp.MustCompile(`(?im)^.*\b(?:shall|must|should)\b[^.\n]*\d[^.\n]*\.?$`)

// sectionHeadingRe recognizes headings that open a KPI candidate section.
var sectionHeadingRe = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:kpis?|metrics?|measures?|success criteria|performance indicators?)\s*[:\-]?\s*$`)

// successCriteriaRe recognizes the heading that opens a charter's success
// criteria section.
var successCriteriaRe = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?success criteria\s*[:\-]?\s*$`)

// charterCriterionRe matches a bulleted or numbered criterion line carrying
// a measurable quantity, used inside a charter's success criteria section.
var charterCriterionRe = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+(.*\d.*?)\.?\s*$`)

// markdownHeadingRe closes a success criteria section at the next heading.
var markdownHeadingRe = regexp.MustCompile(`(?m)^\s*#+\s+\S`)
