package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loginFixture = filepath.Join("..", "internal", "platform", "memtree", "testdata", "login.yaml")

// resetFlags restores every flag of c and its subcommands to its default so
// successive Execute calls do not leak state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI against the login fixture with JSON output and
// returns what it printed on stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() {
		output.OutputFormat = output.FormatYAML
		output.PrettyOutput = false
		rootCmd.SetIn(nil)
	})

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	captured := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		captured <- buf.String()
	}()

	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--fixture", loginFixture, "--format", "json"}, args...))
	runErr := rootCmd.Execute()
	require.NoError(t, w.Close())
	return <-captured, runErr
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestCLI_Windows(t *testing.T) {
	out, err := run(t, "", "windows")
	require.NoError(t, err)

	var list output.WindowList
	decode(t, out, &list)
	require.Len(t, list.Windows, 2)
	assert.Equal(t, int64(4097), list.Windows[0].Handle)
	assert.Equal(t, "LoginApp", list.Windows[0].App)

	out, err = run(t, "", "windows", "--app", "notepad")
	require.NoError(t, err)
	decode(t, out, &list)
	require.Len(t, list.Windows, 1)
	assert.Equal(t, int64(8193), list.Windows[0].Handle)
}

func TestCLI_FindButtons(t *testing.T) {
	out, err := run(t, "", "find", "--window", "0x1001", "--control-type", "Button")
	require.NoError(t, err)

	var res model.QueryResult
	decode(t, out, &res)
	var names []string
	for _, el := range res.Elements {
		names = append(names, el.Name)
	}
	assert.Equal(t, []string{"Submit", "Cancel", "Disabled"}, names)
	assert.Equal(t, 3, res.Diagnostics.Matched)
	assert.Equal(t, "winforms", res.Diagnostics.DetectedFramework)
}

func TestCLI_FindNotFoundExitsNonZero(t *testing.T) {
	out, err := run(t, "", "find", "--window", "4097", "--name", "Nope")
	assert.ErrorIs(t, err, errActionFailed)

	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.False(t, outcome.OK)
	assert.Equal(t, "element_not_found", outcome.Kind)
	require.NotNil(t, outcome.Diagnostics)
	assert.Greater(t, outcome.Diagnostics.ElementsScanned, 0)
}

func TestCLI_ClickByQuery(t *testing.T) {
	out, err := run(t, "", "click", "--window", "4097", "--name", "Submit")
	require.NoError(t, err)

	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.True(t, outcome.OK)
	require.NotNil(t, outcome.Point)
	assert.Equal(t, model.Point{X: 170, Y: 315}, *outcome.Point)
}

func TestCLI_ClickDisabledIsNotActionable(t *testing.T) {
	out, err := run(t, "", "click", "--window", "4097", "--automation-id", "DisabledButton")
	assert.ErrorIs(t, err, errActionFailed)

	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.Equal(t, "element_not_actionable", outcome.Kind)
	assert.Contains(t, outcome.Message, "disabled")
}

func TestCLI_ClickByIDFromFind(t *testing.T) {
	out, err := run(t, "", "find", "--window", "4097", "--name", "Cancel")
	require.NoError(t, err)
	var res model.QueryResult
	decode(t, out, &res)
	require.Len(t, res.Elements, 1)

	out, err = run(t, "", "click", res.Elements[0].ID, "--button", "right")
	require.NoError(t, err)
	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.True(t, outcome.OK)
	assert.Equal(t, res.Elements[0].ID, outcome.ID)
}

func TestCLI_ClickRejectsBadButton(t *testing.T) {
	_, err := run(t, "", "click", "--window", "4097", "--name", "Submit", "--button", "fourth")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errActionFailed)
}

func TestCLI_TypeReplacesText(t *testing.T) {
	out, err := run(t, "", "type", "--window", "4097", "--automation-id", "UsernameInput", "--text", "alice", "--clear-first")
	require.NoError(t, err)

	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.True(t, outcome.OK)
	assert.Equal(t, "alice", outcome.Text)
}

func TestCLI_TextAndAncestors(t *testing.T) {
	out, err := run(t, "", "find", "--window", "4097", "--automation-id", "SubmitButton")
	require.NoError(t, err)
	var res model.QueryResult
	decode(t, out, &res)
	require.Len(t, res.Elements, 1)
	id := res.Elements[0].ID

	out, err = run(t, "", "text", id)
	require.NoError(t, err)
	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.Equal(t, "Submit", outcome.Text)

	out, err = run(t, "", "ancestors", id)
	require.NoError(t, err)
	decode(t, out, &res)
	var names []string
	for _, el := range res.Elements {
		names = append(names, el.Name)
	}
	assert.Equal(t, []string{"Buttons", "Sign in"}, names)
}

func TestCLI_Tree(t *testing.T) {
	out, err := run(t, "", "tree", "--window", "4097", "--depth", "1")
	require.NoError(t, err)

	var tree output.TreeResult
	decode(t, out, &tree)
	require.Len(t, tree.Tree, 1)
	root := tree.Tree[0]
	assert.Equal(t, "Sign in", root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Username", root.Children[0].Name)
	assert.Empty(t, root.Children[1].Children, "depth 1 stops above the buttons")
}

func TestCLI_UnknownWindow(t *testing.T) {
	out, err := run(t, "", "find", "--window", "0xdead", "--name", "Submit")
	assert.ErrorIs(t, err, errActionFailed)
	var outcome model.ActionOutcome
	decode(t, out, &outcome)
	assert.Equal(t, "window_not_found", outcome.Kind)
}

func TestCLI_InvalidFormat(t *testing.T) {
	_, err := run(t, "", "--format", "xml", "windows")
	assert.Error(t, err)
}

func TestCLI_Do(t *testing.T) {
	steps := `
- type: { automation_id: UsernameInput, text: bob, clear_first: true }
- click: { name: Submit }
- get_text: { automation_id: UsernameInput }
`
	out, err := run(t, steps, "do", "--window", "0x1001")
	require.NoError(t, err)

	var res DoResult
	decode(t, out, &res)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Completed)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "bob", res.Results[2].Text)
}
