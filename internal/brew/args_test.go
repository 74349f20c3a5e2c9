package brew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPackageName(t *testing.T) {
	valid := []string{"wget", "python@3.12", "homebrew/cask/firefox", "gtk+3", "lib_foo-bar.2", "A1"}
	for _, n := range valid {
		assert.True(t, ValidPackageName(n), n)
	}
	invalid := []string{"", "wget;rm -rf", "a b", "$(id)", "name\n", "café"}
	for _, n := range invalid {
		assert.False(t, ValidPackageName(n), "%q", n)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Formula, k)

	k, err = ParseKind("cask")
	require.NoError(t, err)
	assert.Equal(t, Cask, k)

	_, err = ParseKind("bottle")
	assert.Equal(t, CodeInvalidKind, CodeOf(err))
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		action Action
		name   string
		kind   string
		want   []string
		code   Code
	}{
		{action: ActionDoctor, want: []string{"doctor"}},
		{action: ActionUpgradeAll, name: "ignored", want: []string{"upgrade"}},
		{action: ActionInstall, name: "wget", want: []string{"install", "wget"}},
		{action: ActionInstall, name: "firefox", kind: "cask", want: []string{"install", "--cask", "firefox"}},
		{action: ActionUninstall, name: "wget", kind: "formula", want: []string{"uninstall", "wget"}},
		{action: ActionUpgrade, name: "zoom", kind: "cask", want: []string{"upgrade", "--cask", "zoom"}},
		{action: ActionInfo, name: "jq", want: []string{"info", "jq"}},
		{action: ActionTap, name: "homebrew/cask-fonts", want: []string{"tap", "homebrew/cask-fonts"}},
		{action: ActionUntap, name: "user/repo", want: []string{"untap", "user/repo"}},
		{action: ActionTap, name: "  ", code: CodeInvalidName},
		{action: ActionInstall, name: "", code: CodeInvalidName},
		{action: ActionInstall, name: "bad name", code: CodeInvalidName},
		{action: ActionInstall, name: "wget", kind: "bottle", code: CodeInvalidKind},
		{action: "reinstall", name: "wget", code: CodeInvalidAction},
	}
	for _, tt := range tests {
		t.Run(string(tt.action)+"/"+tt.name, func(t *testing.T) {
			got, err := BuildArgs(tt.action, tt.name, tt.kind)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, CodeOf(err))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionMutates(t *testing.T) {
	assert.False(t, ActionInfo.Mutates())
	assert.False(t, ActionDoctor.Mutates())
	for _, a := range []Action{ActionInstall, ActionUninstall, ActionUpgrade, ActionUpgradeAll, ActionTap, ActionUntap} {
		assert.True(t, a.Mutates(), a)
	}
}
