package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/freight-scorecard/backend/internal/export"
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func fixtureArgs(t *testing.T) []string {
	t.Helper()
	c, q, d := testutil.WriteCSVFixtures(t, t.TempDir())
	return []string{"--carriers", c, "--quotes", q, "--deliveries", d}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "scorecard version dev\n", out)
}

func TestComputeJSON(t *testing.T) {
	out, err := run(t, append([]string{"compute", "--format", "json"}, fixtureArgs(t)...)...)
	require.NoError(t, err)

	var rows []models.CarrierScoreMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Acme Freight", rows[0].CarrierName)
	assert.Equal(t, 2, rows[0].Cost.QuoteCount)
}

func TestComputeFiltered(t *testing.T) {
	args := append([]string{"compute", "-f", "json", "--truck-type", "tl"}, fixtureArgs(t)...)
	out, err := run(t, args...)
	require.NoError(t, err)

	var rows []models.CarrierScoreMetrics
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, models.TruckTypeTL, rows[0].TruckType)

	args = append([]string{"compute", "-f", "json", "--from", "2025-01-09"}, fixtureArgs(t)...)
	out, err = run(t, args...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].CarrierID)
}

func TestComputeTable(t *testing.T) {
	out, err := run(t, append([]string{"compute"}, fixtureArgs(t)...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Carrier")
	assert.Contains(t, lines[1], "Acme Freight")
	assert.Contains(t, lines[2], "Bolt Lines")
}

func TestComputeRejectsBadFlags(t *testing.T) {
	base := fixtureArgs(t)
	for _, args := range [][]string{
		{"compute", "--format", "xml"},
		{"compute", "--from", "01/02/2025"},
		{"compute", "--from", "2025-02-01", "--to", "2025-01-01"},
		{"compute", "--truck-type", "van"},
		{"compute", "--carrier", "1"},
	} {
		_, err := run(t, append(args, base...)...)
		assert.Error(t, err, args)
	}

	missing := append(append([]string{"compute"}, base...), "--carriers", filepath.Join(t.TempDir(), "missing.csv"))
	_, err := run(t, missing...)
	assert.ErrorContains(t, err, "missing.csv")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := run(t, append([]string{"export", "--out", path, "--truck-type", "LTL"}, fixtureArgs(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 carriers")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetScorecard)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, []string{export.SheetScorecard, export.SheetCost, export.SheetService, export.SheetShipments, export.SheetWeight}, f.GetSheetList())
}

func TestExportCarrierSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.xlsx")
	_, err := run(t, append([]string{"export", "-o", path, "--carrier", "1"}, fixtureArgs(t)...)...)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetScorecard)
	require.NoError(t, err)
	assert.Len(t, rows, 4, "the scorecard keeps every carrier")

	ship, err := f.GetRows(export.SheetShipments)
	require.NoError(t, err)
	require.NotEmpty(t, ship)
	assert.Equal(t, "Week", ship[0][0])
	assert.Equal(t, []string{"2024-12-30", "1"}, ship[1])
	assert.Equal(t, []string{"2025-01-06", "1"}, ship[2])
}
