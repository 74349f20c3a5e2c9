package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deixis/cellar"
	"github.com/deixis/cellar/internal/brew"
	"github.com/deixis/cellar/internal/brew/brewtest"
	cellarmcp "github.com/deixis/cellar/internal/mcp"
	"github.com/deixis/cellar/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree against a config pointing at brewPath.
func execute(t *testing.T, brewPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	body := "brew:\n  path: " + brewPath + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "brew", "version")
	require.NoError(t, err)
	assert.Equal(t, "cellar v"+cellar.Version+"\n", out)
}

func TestStatus(t *testing.T) {
	fake := brewtest.New(t)
	out, _, err := execute(t, fake.Path, "status")
	require.NoError(t, err)
	assert.Contains(t, out, fake.Path)
	assert.Contains(t, out, brewtest.DefaultVersion)
}

func TestList_Text(t *testing.T) {
	fake := brewtest.New(t,
		brewtest.Rule{Match: "list --formula --versions", Stdout: "wget 1.21\n"},
		brewtest.Rule{Match: "list --cask --versions", Stdout: "alacritty\n"},
	)
	out, _, err := execute(t, fake.Path, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"alacritty", "-", "cask"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"wget", "1.21", "formula"}, strings.Fields(lines[1]))
}

func TestSearch_JSONNoResults(t *testing.T) {
	fake := brewtest.New(t, brewtest.Rule{Match: "search *", Exit: 1})
	out, _, err := execute(t, fake.Path, "--json", "search", "zzz")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Equal(t, ExitFailure, ExitCode(err))

	var resp brew.Response[[]brew.Package]
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, brew.CodeNoResults, *resp.ErrorCode)
}

func TestInstall_InvalidName(t *testing.T) {
	fake := brewtest.New(t)
	_, _, err := execute(t, fake.Path, "install", "bad name")
	require.Error(t, err)
	assert.False(t, Reported(err))
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestUpgrade_AllAndCask(t *testing.T) {
	fake := brewtest.New(t,
		brewtest.Rule{Match: "upgrade", Stdout: "upgraded everything\n"},
		brewtest.Rule{Match: "upgrade --cask zoom", Stdout: "upgraded zoom\n"},
	)
	out, _, err := execute(t, fake.Path, "upgrade")
	require.NoError(t, err)
	assert.Equal(t, "upgraded everything\n", out)

	out, _, err = execute(t, fake.Path, "upgrade", "zoom", "--cask")
	require.NoError(t, err)
	assert.Equal(t, "upgraded zoom\n", out)
}

func TestRun_Text(t *testing.T) {
	fake := brewtest.New(t, brewtest.Rule{
		Match: "install wget",
		Shell: "echo '==> Pouring wget'\necho 'Warning: linked' >&2",
	})
	out, errOut, err := execute(t, fake.Path, "run", "install", "wget")
	require.NoError(t, err)
	assert.Equal(t, "==> Pouring wget\n", out)
	assert.Contains(t, errOut, "Warning: linked")
}

func TestRun_JSONEvents(t *testing.T) {
	fake := brewtest.New(t, brewtest.Rule{Match: "doctor", Exit: 1})
	out, _, err := execute(t, fake.Path, "--json", "run", "doctor", "--id", "doc-1")
	require.Error(t, err)
	assert.True(t, Reported(err))

	var events []stream.Event
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var e stream.Event
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		events = append(events, e)
	}
	require.Len(t, events, 3)
	assert.Equal(t, stream.StartEvent("doc-1"), events[0])
	assert.Equal(t, "command exited without output (exit code: 1)", events[1].Line)
	assert.Equal(t, stream.EndEvent("doc-1", false), events[2])
}

func TestRun_BrewMissing(t *testing.T) {
	_, _, err := execute(t, brewtest.Missing(t), "run", "doctor")
	require.Error(t, err)
	assert.Equal(t, ExitNoBrew, ExitCode(err))
}

func TestMCP_Instructions(t *testing.T) {
	out, _, err := execute(t, "brew", "mcp", "--instructions")
	require.NoError(t, err)
	assert.Equal(t, cellarmcp.Instructions, out)
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "status"})
	assert.Error(t, root.Execute())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
}
