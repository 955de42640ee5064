package cmd

import (
	"testing"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "q"}
	addQueryFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestParseHandle(t *testing.T) {
	for in, want := range map[string]int64{"4097": 4097, "0x1001": 4097, "0X1001": 4097} {
		got, err := parseHandle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseHandle("notepad")
	assert.Error(t, err)
}

func TestQueryFromFlags(t *testing.T) {
	c := newQueryCommand(t, "--window", "0x1001", "--name-contains", "user", "--exact-depth", "0", "--found-index", "2", "--max-elements", "3")
	q, err := queryFromFlags(c)
	require.NoError(t, err)
	assert.Equal(t, int64(4097), q.WindowHandle)
	assert.Equal(t, "user", q.NameContains)
	require.NotNil(t, q.ExactDepth)
	assert.Equal(t, 0, *q.ExactDepth)
	assert.Equal(t, 2, q.FoundIndex)
	assert.Equal(t, 3, q.MaxElements)
	assert.True(t, hasQueryFlags(c))
}

func TestQueryFromFlags_ExactDepthUnsetIsAnyDepth(t *testing.T) {
	c := newQueryCommand(t, "--window", "4097")
	q, err := queryFromFlags(c)
	require.NoError(t, err)
	assert.Nil(t, q.ExactDepth)
	assert.False(t, hasQueryFlags(c))
}

func TestQueryFromFlags_BadWindow(t *testing.T) {
	c := newQueryCommand(t, "--window", "main")
	_, err := queryFromFlags(c)
	assert.Error(t, err)
}

func TestTargetFromArgs(t *testing.T) {
	target, err := targetFromArgs(newQueryCommand(t), []string{"1001|1.0|1"})
	require.NoError(t, err)
	assert.Equal(t, "1001|1.0|1", target.ID)
	assert.Nil(t, target.Query)

	target, err = targetFromArgs(newQueryCommand(t, "--window", "4097", "--name", "Submit"), nil)
	require.NoError(t, err)
	require.NotNil(t, target.Query)
	assert.Equal(t, "Submit", target.Query.Name)

	_, err = targetFromArgs(newQueryCommand(t, "--name", "Submit"), []string{"1001|1.0|1"})
	assert.Error(t, err, "id and query together")

	_, err = targetFromArgs(newQueryCommand(t, "--window", "4097"), nil)
	assert.Error(t, err, "window alone selects nothing")
}

func TestFilterWindows(t *testing.T) {
	windows := []model.Window{
		{Handle: 1, App: "LoginApp", PID: 10},
		{Handle: 2, App: "Notepad", PID: 20},
		{Handle: 3, App: "notepad", PID: 30},
	}
	assert.Len(t, filterWindows(windows, 0, ""), 3)
	assert.Len(t, filterWindows(windows, 0, "NOTE"), 2)
	got := filterWindows(windows, 30, "note")
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Handle)
	assert.Empty(t, filterWindows(windows, 99, ""))
}
