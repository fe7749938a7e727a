package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luozhenyu/pgfulltext/internal/store"
)

// recordDocuments compiles the documents schema into a new ledger twice
// and returns the ledger path.
func recordDocuments(t *testing.T) string {
	t.Helper()
	dir := writeFiles(t, map[string]string{"tables.cue": documentsSchema})
	db := filepath.Join(t.TempDir(), "ddl.db")

	for i := 0; i < 2; i++ {
		_, err := runCLI(t, "compile", dir, "--text-search-config", "english", "--record", db)
		require.NoError(t, err)
	}
	return db
}

func TestHistoryListsBatches(t *testing.T) {
	db := recordDocuments(t)

	out, err := runCLI(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[HistoryResult](t, out)
	require.Len(t, resp.Data.Batches, 2)
	assert.Less(t, resp.Data.Batches[0].Seq, resp.Data.Batches[1].Seq)
	assert.NotEqual(t, resp.Data.Batches[0].ID, resp.Data.Batches[1].ID)
	assert.Equal(t, 3, resp.Data.Batches[0].StatementCount)
}

func TestHistoryBatchStatements(t *testing.T) {
	db := recordDocuments(t)

	out, err := runCLI(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)
	batchID := decodeResponse[HistoryResult](t, out).Data.Batches[0].ID

	out, err = runCLI(t, "history", "--db", db, "--batch", batchID)
	require.NoError(t, err)

	assert.Contains(t, out, batchID+" #0 [create_table] "+documentsDDL[0])
	assert.Contains(t, out, batchID+" #1 [drop_index] "+documentsDDL[1])
	assert.Contains(t, out, batchID+" #2 [create_index] "+documentsDDL[2])
}

func TestHistoryStatementOccurrences(t *testing.T) {
	db := recordDocuments(t)

	out, err := runCLI(t, "history", "--db", db,
		"--statement", store.StatementID(documentsDDL[2]), "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[HistoryResult](t, out)
	require.Len(t, resp.Data.Statements, 2)
	for _, s := range resp.Data.Statements {
		assert.Equal(t, 2, s.Position)
		assert.Equal(t, documentsDDL[2], s.SQL)
	}
	assert.NotEqual(t, resp.Data.Statements[0].BatchID, resp.Data.Statements[1].BatchID)
}

func TestHistoryUnknownBatch(t *testing.T) {
	db := recordDocuments(t)

	out, err := runCLI(t, "history", "--db", db, "--batch", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
	assert.Contains(t, out, "batch not found")
}

func TestHistoryEmptyLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCLI(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No history.\n", out)
}

func TestHistoryMissingDatabase(t *testing.T) {
	out, err := runCLI(t, "history", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}

func TestHistoryBatchAndStatementExclusive(t *testing.T) {
	_, err := runCLI(t, "history", "--db", "x.db", "--batch", "a", "--statement", "b")
	require.Error(t, err)
}
