package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadb/models"
)

func newTestStorage(t *testing.T) *ResultsStorage {
	t.Helper()
	storage, err := NewResultsStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func sampleResult() *models.SQLResult {
	return &models.SQLResult{
		Columns: []string{"ProductName", "Quantity"},
		Rows: [][]interface{}{
			{"Aspirin", "12"},
			{"Ibuprofen", nil},
		},
	}
}

func TestSaveAndReadJSON(t *testing.T) {
	storage := newTestStorage(t)

	filename, err := storage.SaveResultAsJSON(sampleResult(), "SELECT * FROM [dbo].[products];")
	require.NoError(t, err)
	assert.Contains(t, filename, ".json")

	got, err := storage.GetResultFile(filename)
	require.NoError(t, err)
	assert.Equal(t, filename, got.Filename)
	assert.Equal(t, "SELECT * FROM [dbo].[products];", got.Query)
	assert.Equal(t, []string{"ProductName", "Quantity"}, got.Columns)
	assert.Equal(t, 2, got.RowCount)
}

func TestSaveAndReadCSV(t *testing.T) {
	storage := newTestStorage(t)

	filename, err := storage.SaveResultAsCSV(sampleResult(), "SELECT 1;")
	require.NoError(t, err)
	assert.Contains(t, filename, ".csv")

	got, err := storage.GetResultFile(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"ProductName", "Quantity"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Aspirin", got.Rows[0][0])
	// CSV has no null representation; nil comes back as an empty string.
	assert.Equal(t, "", got.Rows[1][1])
}

func TestGetResultFileRejectsTraversal(t *testing.T) {
	storage := newTestStorage(t)

	for _, name := range []string{"../secret.json", "a/b.json", `a\b.json`, "..\\up.csv"} {
		_, err := storage.GetResultFile(name)
		assert.Error(t, err, "filename: %q", name)
	}
}

func TestGetResultFileUnsupportedFormat(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.GetResultFile("notes.txt")
	assert.Error(t, err)
}

func TestListResultFiles(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.SaveResultAsJSON(sampleResult(), "SELECT 1;")
	require.NoError(t, err)
	_, err = storage.SaveResultAsCSV(sampleResult(), "SELECT 2;")
	require.NoError(t, err)

	files, err := storage.ListResultFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	formats := []string{files[0].Format, files[1].Format}
	assert.ElementsMatch(t, []string{"json", "csv"}, formats)
}
