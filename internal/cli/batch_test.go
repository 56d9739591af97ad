package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/wtm/internal/model"
)

func TestParseBatchFile(t *testing.T) {
	input := `# sprint 12
feature/a

  feature/b   origin/release
# feature/c
feature/d
`
	items, err := parseBatchFile(strings.NewReader(input), "main")
	require.NoError(t, err)

	assert.Equal(t, []model.BatchItem{
		{Name: "feature/a", Base: "main", Status: model.StatusPending},
		{Name: "feature/b", Base: "origin/release", Status: model.StatusPending},
		{Name: "feature/d", Base: "main", Status: model.StatusPending},
	}, items)
}

func TestParseBatchFileRejectsExtraFields(t *testing.T) {
	_, err := parseBatchFile(strings.NewReader("a\nb main extra\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseBatchFileEmpty(t *testing.T) {
	items, err := parseBatchFile(strings.NewReader("\n# nothing\n"), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPrintBatchReportText(t *testing.T) {
	report := &model.BatchReport{Operation: "create", Items: []model.BatchItem{
		{Name: "feature/a", Status: model.StatusSuccess, Path: "/w/feature/a"},
		{Name: "b", Status: model.StatusFailed, Reason: "fatal: cannot lock ref\nhint: retry"},
	}}
	report.Tally()

	var buf bytes.Buffer
	printBatchReportText(&buf, report)

	assert.Equal(t,
		"success    feature/a  /w/feature/a\n"+
			"failed     b          fatal: cannot lock ref ...\n"+
			"\n"+
			"create: 1 succeeded, 1 failed\n",
		buf.String())
}
