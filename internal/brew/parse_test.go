package brew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersioned(t *testing.T) {
	pkgs := parseVersioned("wget 1.21.4 1.21.3\n\n  \njq\n", Formula)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "wget", pkgs[0].Name)
	require.NotNil(t, pkgs[0].Version)
	assert.Equal(t, "1.21.4", *pkgs[0].Version)
	assert.Equal(t, "jq", pkgs[1].Name)
	assert.Nil(t, pkgs[1].Version)
	assert.Equal(t, Formula, pkgs[1].Kind)
}

func TestParseNames(t *testing.T) {
	pkgs := parseNames("node (20.1.0) < 21.0.0\nfirefox (119) != 120\n", Cask)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "node", pkgs[0].Name)
	assert.Equal(t, "firefox", pkgs[1].Name)
	assert.Nil(t, pkgs[0].Version)
	assert.Equal(t, Cask, pkgs[0].Kind)
}

func TestParseSearch(t *testing.T) {
	pkgs := parseSearch("==> Formulae\nwget\n  wgetpaste  \n\n= stray header\n", Formula)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "wget", pkgs[0].Name)
	assert.Equal(t, "wgetpaste", pkgs[1].Name)
	assert.Empty(t, parseSearch("", Cask))
}

func TestParseLines(t *testing.T) {
	assert.Equal(t, []string{"homebrew/core", "user/repo"}, parseLines(" homebrew/core\n\nuser/repo\n"))
	assert.Equal(t, []string{}, parseLines(""))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Homebrew 4.4.0", firstLine("Homebrew 4.4.0\r\nHomebrew/homebrew-core\n"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "", firstLine(""))
}

func TestSortByName(t *testing.T) {
	pkgs := []Package{{Name: "zoom"}, {Name: "abc"}, {Name: "m"}}
	sortByName(pkgs)
	assert.Equal(t, "abc", pkgs[0].Name)
	assert.Equal(t, "m", pkgs[1].Name)
	assert.Equal(t, "zoom", pkgs[2].Name)
}
