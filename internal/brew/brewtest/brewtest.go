// Package brewtest provides a scriptable fake brew executable for tests.
package brewtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DefaultVersion is printed for `--version` unless a rule overrides it.
const DefaultVersion = "Homebrew 4.4.0"

// Rule answers the invocations whose joined arguments match Match, a shell
// case pattern where only * is special. Shell, when set, replaces the
// canned reply with a raw sh script body.
type Rule struct {
	Match  string
	Stdout string
	Stderr string
	Exit   int
	Shell  string
}

// Fake is an installed fake brew.
type Fake struct {
	Path string
	dir  string
}

// New writes a fake brew into a temp dir. Rules are tried in order; an
// unmatched invocation prints an error and exits 1.
func New(t testing.TB, rules ...Rule) *Fake {
	t.Helper()
	dir := t.TempDir()
	f := &Fake{Path: filepath.Join(dir, "brew"), dir: dir}

	rules = append(rules, Rule{Match: "--version", Stdout: DefaultVersion + "\n"})

	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\necho \"$*\" >> %s\ncase \"$*\" in\n", quote(f.callLog()))
	for i, r := range rules {
		fmt.Fprintf(&b, "%s)\n", pattern(r.Match))
		if r.Shell != "" {
			fmt.Fprintf(&b, "%s\n;;\n", r.Shell)
			continue
		}
		out := filepath.Join(dir, fmt.Sprintf("r%d.out", i))
		errOut := filepath.Join(dir, fmt.Sprintf("r%d.err", i))
		write(t, out, r.Stdout)
		write(t, errOut, r.Stderr)
		fmt.Fprintf(&b, "cat %s\ncat %s >&2\nexit %d\n;;\n", quote(out), quote(errOut), r.Exit)
	}
	b.WriteString("*)\necho \"fake brew: unexpected arguments: $*\" >&2\nexit 1\n;;\nesac\n")

	if err := os.WriteFile(f.Path, []byte(b.String()), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

// Missing returns a brew path that does not exist.
func Missing(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "no-such-brew")
}

// Calls returns the argument lines of every invocation so far.
func (f *Fake) Calls(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(f.callLog())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Count returns how many invocations had exactly args.
func (f *Fake) Count(t testing.TB, args string) int {
	t.Helper()
	n := 0
	for _, c := range f.Calls(t) {
		if c == args {
			n++
		}
	}
	return n
}

func (f *Fake) callLog() string { return filepath.Join(f.dir, "calls.log") }

func write(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// pattern quotes everything in m except *.
func pattern(m string) string {
	parts := strings.Split(m, "*")
	for i, p := range parts {
		if p != "" {
			parts[i] = quote(p)
		}
	}
	return strings.Join(parts, "*")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
