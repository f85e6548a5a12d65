package reportexport_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concord/internal/domain"
	"concord/internal/reportexport"
)

func TestCSVWriter_WritesHeaderAndGroups(t *testing.T) {
	groups := []domain.EntityConsensusGroup{
		{
			Text:      "Acme Corp",
			Consensus: domain.ConsensusAgree,
			Mentions: []domain.EntityMention{
				{Model: "claude", Type: "organization", Confidence: 0.9},
				{Model: "gpt4", Type: "organization", Confidence: 0.7},
			},
		},
		{
			Text:      "Jordan",
			Consensus: domain.ConsensusPartial,
			Mentions: []domain.EntityMention{
				{Model: "claude", Type: "person", Confidence: 0.8},
				{Model: "gpt4", Type: "location", Confidence: 0.6},
			},
		},
	}

	var buf bytes.Buffer
	w := reportexport.NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteEntityGroups(groups))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Entity", "Consensus", "Mention Count", "Distinct Types", "Models", "Avg Confidence"}, records[0])
	assert.Equal(t, []string{"Acme Corp", "agree", "2", "organization", "claude; gpt4", "0.80"}, records[1])
	assert.Equal(t, []string{"Jordan", "partial", "2", "person; location", "claude; gpt4", "0.70"}, records[2])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Q3_earnings_call", reportexport.SanitizeFilename("Q3 earnings call"))
	assert.Equal(t, "report_v2", reportexport.SanitizeFilename("report!!//v2"))
	assert.Equal(t, "analysis", reportexport.SanitizeFilename("???"))
	assert.Equal(t, "analysis", reportexport.SanitizeFilename(""))

	long := strings.Repeat("a", 150)
	assert.Len(t, reportexport.SanitizeFilename(long), 100)
}

func TestBuildFilename(t *testing.T) {
	name := reportexport.BuildFilename("Q3 earnings call", "csv")

	assert.True(t, strings.HasPrefix(name, "Q3_earnings_call_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
