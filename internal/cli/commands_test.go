package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/store"
)

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "genlist.db")
}

// addJSON adds a producer and returns its id.
func addJSON(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, _, err := execute(t, append([]string{"add", "--db", db, "--format", "json"}, args...)...)
	require.NoError(t, err)
	var res AddResult
	decodeJSON(t, out, &res)
	require.NotEmpty(t, res.ID)
	return res.ID
}

func TestAdd_Text(t *testing.T) {
	db := testDB(t)
	out, _, err := execute(t, "add", "--db", db, "--label", "jobs", "--priority", "3", "--values", "1,2,3")
	require.NoError(t, err)
	assert.Contains(t, out, "(jobs), 1 in list")
}

func TestAdd_InvalidSpec(t *testing.T) {
	db := testDB(t)

	out, _, err := execute(t, "add", "--db", db, "--format", "json", "--label", "x", "--kind", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeJSON(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)

	_, _, err = execute(t, "add", "--db", db, "--label", "r", "--kind", "range", "--start", "0", "--stop", "3", "--step", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAdd_LabelRequired(t *testing.T) {
	_, _, err := execute(t, "add", "--db", testDB(t), "--values", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label")
}

func TestList_OrderedByPriority(t *testing.T) {
	db := testDB(t)
	low := addJSON(t, db, "--label", "low", "--priority", "1", "--values", "1")
	high := addJSON(t, db, "--label", "high", "--priority", "9", "--values", "2")
	mid := addJSON(t, db, "--label", "mid", "--priority", "5", "--kind", "repeat", "--value", "4", "--times", "2")

	out, _, err := execute(t, "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	var views []pool.NodeView
	decodeJSON(t, out, &views)

	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{high, mid, low}, ids)

	out, _, err = execute(t, "list", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "LABEL")
	assert.Contains(t, lines[1], "high")
	assert.Contains(t, lines[2], "repeat")
}

func TestList_Empty(t *testing.T) {
	out, _, err := execute(t, "list", "--db", testDB(t))
	require.NoError(t, err)
	assert.Equal(t, "(empty)\n", out)
}

func TestNext_PullsAcrossRestarts(t *testing.T) {
	db := testDB(t)
	addJSON(t, db, "--label", "a", "--priority", "1", "--values", "1,2")
	b := addJSON(t, db, "--label", "b", "--priority", "5", "--values", "10")

	out, _, err := execute(t, "next", "--db", db, "--format", "json", "-n", "2")
	require.NoError(t, err)
	var res NextResult
	decodeJSON(t, out, &res)
	assert.Equal(t, []int64{10, 1}, res.Values)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, []string{b}, res.Steps[1].Evicted)
	assert.False(t, res.Empty)

	// Producer state survives the process boundary.
	out, _, err = execute(t, "next", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2\ta\t")
}

func TestNext_EmptyExitsFailure(t *testing.T) {
	db := testDB(t)
	id := addJSON(t, db, "--label", "once", "--values", "1")

	out, _, err := execute(t, "next", "--db", db, "-n", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1\tonce\t")
	assert.Contains(t, out, "evicted "+id)
	assert.Contains(t, out, "(empty)")
}

func TestNext_SingleStep(t *testing.T) {
	db := testDB(t)
	id := addJSON(t, db, "--label", "none")

	out, _, err := execute(t, "next", "--db", db, "--step", "--format", "json")
	require.NoError(t, err)
	var res NextResult
	decodeJSON(t, out, &res)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, genlist.Exhausted, res.Steps[0].Outcome)
	assert.Equal(t, id, res.Steps[0].ProducerID)
	assert.Empty(t, res.Values)

	// A step on the now empty list is not an error.
	_, _, err = execute(t, "next", "--db", db, "--step")
	require.NoError(t, err)
}

func TestNext_InvalidCount(t *testing.T) {
	_, _, err := execute(t, "next", "--db", testDB(t), "-n", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRetireAndSweep(t *testing.T) {
	db := testDB(t)
	a := addJSON(t, db, "--label", "a", "--priority", "2", "--values", "1")
	b := addJSON(t, db, "--label", "b", "--priority", "1", "--values", "2")

	out, _, err := execute(t, "retire", "--db", db, a)
	require.NoError(t, err)
	assert.Equal(t, "retired "+a+"\n", out)

	out, _, err = execute(t, "sweep", "--db", db, "--format", "json")
	require.NoError(t, err)
	var res SweepResult
	decodeJSON(t, out, &res)
	assert.Equal(t, []string{a}, res.Removed)
	assert.Equal(t, 1, res.Remaining)

	out, _, err = execute(t, "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	var views []pool.NodeView
	decodeJSON(t, out, &views)
	require.Len(t, views, 1)
	assert.Equal(t, b, views[0].ID)

	out, _, err = execute(t, "sweep", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0 removed, 1 remaining")
}

func TestRetire_UnknownProducer(t *testing.T) {
	out, _, err := execute(t, "retire", "--db", testDB(t), "--format", "json", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
	resp := decodeJSON(t, out, nil)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestRetire_RequiresID(t *testing.T) {
	_, _, err := execute(t, "retire", "--db", testDB(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCheck(t *testing.T) {
	db := testDB(t)
	addJSON(t, db, "--label", "a", "--values", "1,2")
	addJSON(t, db, "--label", "b", "--priority", "4", "--values", "3")

	out, _, err := execute(t, "check", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 producers, seq 2\n", out)

	out, _, err = execute(t, "check", "--db", db, "--format", "json")
	require.NoError(t, err)
	var res CheckResult
	decodeJSON(t, out, &res)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Producers)
}

func TestCheck_SplitList(t *testing.T) {
	db := testDB(t)
	addJSON(t, db, "--label", "a", "--values", "1")

	// A second unlinked row simulates a crash between persisting a node
	// and persisting its predecessor.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`INSERT INTO producers (id, label, priority, seq, kind, state, content_hash)
		VALUES ('stray', 'stray', 0, 99, 'list', '{"index":0,"values":[]}', 'x')`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "check", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrMultipleHeads)
	resp := decodeJSON(t, out, nil)
	assert.Equal(t, ErrCodeInvariant, resp.Error.Code)
}

func TestTrace(t *testing.T) {
	db := testDB(t)
	id := addJSON(t, db, "--label", "a", "--values", "7")
	_, _, err := execute(t, "next", "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)
	var all TraceResult
	decodeJSON(t, out, &all)
	require.Len(t, all.Events, 2)
	assert.Equal(t, store.EventInsert, all.Events[0].Kind)
	assert.Equal(t, store.EventProduce, all.Events[1].Kind)
	assert.Len(t, all.Hash, 64)

	out, _, err = execute(t, "trace", "--db", db, "--format", "json", "--kind", "produce", "--producer", id)
	require.NoError(t, err)
	var produced TraceResult
	decodeJSON(t, out, &produced)
	require.Len(t, produced.Events, 1)
	require.NotNil(t, produced.Events[0].Value)
	assert.Equal(t, int64(7), *produced.Events[0].Value)
	assert.NotEqual(t, all.Hash, produced.Hash)

	out, _, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[2] produce "+id+" (a) = 7")
	assert.Contains(t, out, "2 events, hash "+all.Hash)
}

func TestTrace_Empty(t *testing.T) {
	out, _, err := execute(t, "trace", "--db", testDB(t))
	require.NoError(t, err)
	assert.Contains(t, out, "No events found")
}

func TestTrace_InvalidKind(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", testDB(t), "--kind", "explode")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown event kind")
}
