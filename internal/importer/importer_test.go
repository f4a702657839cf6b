package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRowsCSV(t *testing.T) {
	path := writeTempFile(t, "rows.csv", `Name, Current, Target,Owner
Customer satisfaction,62,90,Dana Reyes
Deployment frequency,4,,`)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Header names are lowercased and trimmed
	assert.Equal(t, "Customer satisfaction", rows[0]["name"])
	assert.Equal(t, "62", rows[0]["current"])
	assert.Equal(t, "90", rows[0]["target"])
	assert.Equal(t, "Dana Reyes", rows[0]["owner"])

	assert.Equal(t, "Deployment frequency", rows[1]["name"])
	assert.Equal(t, "", rows[1]["target"])
}

func TestReadRowsCSVEmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	_, err := ReadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadRowsYAML(t *testing.T) {
	path := writeTempFile(t, "rows.yaml", `
- Name: Customer satisfaction
  Current: 62.5
  Target: 90
  Status: on_track
- name: Deployment frequency
  current: 4
  owner: ~
`)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Customer satisfaction", rows[0]["name"])
	assert.Equal(t, "62.5", rows[0]["current"])
	assert.Equal(t, "90", rows[0]["target"])
	assert.Equal(t, "on_track", rows[0]["status"])

	// Null values are dropped rather than rendered as "<nil>"
	_, ok := rows[1]["owner"]
	assert.False(t, ok)
}

func TestReadRowsYMLExtension(t *testing.T) {
	path := writeTempFile(t, "rows.yml", "- name: Uptime\n  current: 99.9\n")

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "99.9", rows[0]["current"])
}

func TestReadRowsUnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "rows.txt", "whatever")

	_, err := ReadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported import format")
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestReadRowsYAMLBadShape(t *testing.T) {
	path := writeTempFile(t, "bad.yaml", "name: not-a-list\n")

	_, err := ReadRows(path)
	require.Error(t, err)
}
