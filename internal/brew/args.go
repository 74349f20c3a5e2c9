package brew

import (
	"fmt"
	"strings"
)

// Kind distinguishes Homebrew formulae from casks.
type Kind string

const (
	Formula Kind = "formula"
	Cask    Kind = "cask"
)

// ParseKind validates s. An empty string means Formula.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", Formula:
		return Formula, nil
	case Cask:
		return Cask, nil
	}
	return "", newError(CodeInvalidKind, "kind must be formula or cask", nil)
}

// flag returns the brew selector flag for k.
func (k Kind) flag() string {
	if k == Cask {
		return "--cask"
	}
	return "--formula"
}

// ValidPackageName reports whether name is non-empty and contains only
// ASCII letters, digits and / + . - @ _.
func ValidPackageName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range []byte(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("/+.-@_", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// Action names a streaming brew operation.
type Action string

const (
	ActionInfo       Action = "info"
	ActionDoctor     Action = "doctor"
	ActionInstall    Action = "install"
	ActionUninstall  Action = "uninstall"
	ActionUpgrade    Action = "upgrade"
	ActionUpgradeAll Action = "upgrade_all"
	ActionTap        Action = "tap"
	ActionUntap      Action = "untap"
)

// Actions lists every supported streaming action.
var Actions = []Action{
	ActionInfo, ActionDoctor, ActionInstall, ActionUninstall,
	ActionUpgrade, ActionUpgradeAll, ActionTap, ActionUntap,
}

// Mutates reports whether the action can change installed state.
func (a Action) Mutates() bool {
	switch a {
	case ActionInfo, ActionDoctor:
		return false
	}
	return true
}

// BuildArgs validates an action request and returns the brew argument
// vector for it. name is required for package and tap actions; kind
// applies to package actions only and defaults to formula.
func BuildArgs(action Action, name, kind string) ([]string, error) {
	switch action {
	case ActionDoctor:
		return []string{"doctor"}, nil
	case ActionUpgradeAll:
		return []string{"upgrade"}, nil
	case ActionTap, ActionUntap:
		if strings.TrimSpace(name) == "" {
			return nil, newError(CodeInvalidName, "tap name is required", nil)
		}
		return []string{string(action), name}, nil
	case ActionInfo, ActionInstall, ActionUninstall, ActionUpgrade:
		return packageArgs(string(action), name, kind)
	}
	return nil, newError(CodeInvalidAction, fmt.Sprintf("unsupported action %q", action), nil)
}

// packageArgs builds "<sub> [--cask] <name>".
func packageArgs(sub, name, kind string) ([]string, error) {
	if !ValidPackageName(name) {
		return nil, newError(CodeInvalidName, fmt.Sprintf("invalid package name %q", name), nil)
	}
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	args := []string{sub}
	if k == Cask {
		args = append(args, "--cask")
	}
	return append(args, name), nil
}
