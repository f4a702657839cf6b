package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpilens/kpilens/schema"
)

var extractNow = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

func TestExtractLabeledBlock(t *testing.T) {
	text := `Project: Apollo Migration
KPI: Store migration completion
Owner: Dana Reyes
Status: on track
Current: 12
Target: 20
Last Updated: 2026-08-15`

	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Store migration completion", rec.Name)
	assert.Equal(t, "Apollo Migration", rec.Project)
	assert.Equal(t, "Dana Reyes", rec.Owner)
	assert.Equal(t, schema.Status("on track"), rec.Status)
	require.NotNil(t, rec.CurrentValue)
	require.NotNil(t, rec.TargetValue)
	assert.Equal(t, 12.0, *rec.CurrentValue)
	assert.Equal(t, 20.0, *rec.TargetValue)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), rec.LastUpdated)
	assert.NotEmpty(t, rec.ID)
	assert.InDelta(t, 0.9, rec.Confidence, 1e-9)
	assert.Len(t, rec.History, 1)
}

func TestExtractProvenanceSpans(t *testing.T) {
	text := "KPI: Conversion rate\nTarget: 5%"
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	span, ok := recs[0].Provenance[string(FieldName)]
	require.True(t, ok)
	assert.Equal(t, 1, span.Line)
	assert.Equal(t, schema.UnitPercent, recs[0].Unit)
}

func TestExtractLastMatchWins(t *testing.T) {
	text := `KPI: Uptime
Current: 98
Current: 99.2
Target: 99.9`
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].CurrentValue)
	assert.Equal(t, 99.2, *recs[0].CurrentValue)
	// span still points at the first mention
	assert.Equal(t, 2, recs[0].Provenance[string(FieldCurrentValue)].Line)
}

func TestExtractMeasurementProse(t *testing.T) {
	text := "Metric: Store rollout\nWe have completed 12 of 20 store migrations so far."
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].CurrentValue)
	require.NotNil(t, recs[0].TargetValue)
	assert.Equal(t, 12.0, *recs[0].CurrentValue)
	assert.Equal(t, 20.0, *recs[0].TargetValue)
}

func TestExtractMultipleWindows(t *testing.T) {
	text := `KPI: Revenue growth
Target: $1,250,000
Current: $900,000




KPI: Customer churn
Target: 5%
Current: 7.5%`
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Revenue growth", recs[0].Name)
	assert.Equal(t, schema.UnitCurrency, recs[0].Unit)
	assert.Equal(t, "Customer churn", recs[1].Name)
	assert.Equal(t, schema.UnitPercent, recs[1].Unit)
}

func TestExtractTemplateFallback(t *testing.T) {
	text := `Project: Orion Data Platform

This statement of work covers the design and delivery phases.
All deliverables are described in the appendix.`
	recs, err := NewPipeline().Extract(text, schema.SOWDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Orion Data Platform delivery", rec.Name)
	assert.Equal(t, schema.NotStarted, rec.Status)
	assert.Zero(t, rec.Confidence)
	assert.Equal(t, extractNow, rec.LastUpdated)
}

func TestExtractTemplateFallbackNoProject(t *testing.T) {
	recs, err := NewPipeline().Extract("nothing measurable here", schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Document objectives", recs[0].Name)
}

func TestExtractRequirementsSentences(t *testing.T) {
	text := "The system shall process 500 transactions per second.\nREQ-2: The exporter must finish within 30 minutes."
	recs, err := NewPipeline().Extract(text, schema.RequirementsDoc, extractNow)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0].Name, "shall process 500 transactions")
}

func TestExtractCharterSuccessCriteria(t *testing.T) {
	text := `Project Name: Literacy Initiative
Project Manager: Dana Reyes

Success Criteria:
- Improve graduation rate to 85%
- Train 120 of 150 teachers on the new curriculum.`

	recs, err := NewPipeline().Extract(text, schema.CharterDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Improve graduation rate to 85%", recs[0].Name)
	require.NotNil(t, recs[0].CurrentValue)
	require.NotNil(t, recs[0].TargetValue)
	assert.Equal(t, 85.0, *recs[0].CurrentValue)
	assert.Equal(t, 100.0, *recs[0].TargetValue)
	assert.Equal(t, schema.UnitPercent, recs[0].Unit)

	assert.Equal(t, "Train 120 of 150 teachers on the new curriculum", recs[1].Name)
	require.NotNil(t, recs[1].CurrentValue)
	require.NotNil(t, recs[1].TargetValue)
	assert.Equal(t, 120.0, *recs[1].CurrentValue)
	assert.Equal(t, 150.0, *recs[1].TargetValue)
	assert.Equal(t, schema.CharterDoc, recs[1].SourceKind)
}

func TestExtractCharterCriteriaNumberedList(t *testing.T) {
	text := "## Success Criteria\n1. Reduce support backlog to 25 tickets\n2. Reach 99.5% uptime"
	recs, err := NewPipeline().Extract(text, schema.CharterDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Reduce support backlog to 25 tickets", recs[0].Name)
	assert.Equal(t, "Reach 99.5% uptime", recs[1].Name)
}

func TestExtractUnparsableTokenFallsThrough(t *testing.T) {
	text := `KPI: Feature adoption
Current: 42
Target: TBD
We are targeting 90% adoption across the org.`

	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	require.NotNil(t, rec.TargetValue)
	assert.Equal(t, 90.0, *rec.TargetValue)
	assert.Equal(t, schema.UnitPercent, rec.Unit)
	require.NotNil(t, rec.CurrentValue)
	assert.Equal(t, 42.0, *rec.CurrentValue)
	assert.InDelta(t, 0.9, rec.Confidence, 1e-9)
}

func TestExtractUnparsableTokenLowersConfidence(t *testing.T) {
	text := "KPI: Feature adoption\nCurrent: 42\nTarget: TBD"
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Nil(t, rec.TargetValue)
	require.NotNil(t, rec.CurrentValue)
	assert.Equal(t, 42.0, *rec.CurrentValue)
	assert.InDelta(t, 0.8, rec.Confidence, 1e-9)
}

func TestExtractMissingNumbersCapsConfidence(t *testing.T) {
	text := "KPI: Team morale\nOwner: Sam Ortiz"
	recs, err := NewPipeline().Extract(text, schema.FreeTextDoc, extractNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.LessOrEqual(t, recs[0].Confidence, 0.5)
}

func TestExtractBinaryContent(t *testing.T) {
	_, err := NewPipeline().Extract("abc\x00def", schema.FreeTextDoc, extractNow)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)

	_, err = NewPipeline().Extract(string([]byte{0xff, 0xfe, 0xfd}), schema.FreeTextDoc, extractNow)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestExtractUnknownKind(t *testing.T) {
	_, err := NewPipeline().Extract("KPI: x", schema.DocumentKind("pdf"), extractNow)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}
