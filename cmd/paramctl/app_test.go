package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	params "github.com/goliatone/go-params"
)

const siteDoc = `
params:
  root: /srv
  data: "{$root}/data"
  port: "1"
  db:
    port: 5432
  hosts: [a, b]
defaults:
  level: info
rules:
  - name: data
    expr: data == "/srv/data"
`

const parentDoc = `
[params]
root = "/opt"
owner = "ops"
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"paramctl"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestGetCommand(t *testing.T) {
	site := writeDoc(t, t.TempDir(), "site.yaml", siteDoc)
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "resolved", args: []string{"get", "data"}, want: "/srv/data\n"},
		{name: "raw", args: []string{"get", "--raw", "data"}, want: "{$root}/data\n"},
		{name: "scoped", args: []string{"get", "--prefix", "db", "port"}, want: "5432\n"},
		{name: "unscoped", args: []string{"get", "port"}, want: "1\n"},
		{name: "default", args: []string{"get", "level"}, want: "info\n"},
		{name: "multi raw", args: []string{"get", "--raw", "hosts"}, want: "a\nb\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"--config", site}, tc.args...)...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, out)
			}
		})
	}
}

func TestGetErrors(t *testing.T) {
	site := writeDoc(t, t.TempDir(), "site.yaml", siteDoc)

	_, _, err := run(t, "--config", site, "get", "missing")
	if exitCode(err) != exitNotFound {
		t.Fatalf("expected not found exit code, got %v", err)
	}
	_, _, err = run(t, "--config", site, "get")
	if exitCode(err) != exitUsage {
		t.Fatalf("expected usage exit code, got %v", err)
	}
	if _, _, err = run(t, "--config", site, "get", "hosts"); err == nil {
		t.Fatalf("expected resolved lookup of a multi-valued parameter to fail")
	}
}

func TestResolveAndDump(t *testing.T) {
	site := writeDoc(t, t.TempDir(), "site.yaml", siteDoc)

	out, _, err := run(t, "--config", site, "resolve", "{$root}/x", "plain")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "/srv/x\nplain\n" {
		t.Fatalf("unexpected resolve output %q", out)
	}

	out, _, err = run(t, "--config", site, "dump", "--resolved")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, line := range []string{"data=/srv/data\t# parameter", "hosts=a,b\t# parameter", "level=info\t# default"} {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("expected %q in dump output:\n%s", line, out)
		}
	}
}

func TestTraceCommand(t *testing.T) {
	site := writeDoc(t, t.TempDir(), "site.yaml", siteDoc)
	out, _, err := run(t, "--config", site, "trace", "--prefix", "db", "port")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	trace, err := params.TraceFromJSON([]byte(out))
	if err != nil {
		t.Fatalf("decode trace: %v", err)
	}
	if trace.Winner != params.TierScopedParameter || trace.Name != "port" {
		t.Fatalf("unexpected trace %+v", trace)
	}
}

func TestMergeCommandReportsDecisions(t *testing.T) {
	dir := t.TempDir()
	site := writeDoc(t, dir, "site.yaml", siteDoc)
	parent := writeDoc(t, dir, "parent.toml", parentDoc)

	out, _, err := run(t, "--config", site, "merge", "--parent", parent, "--report")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	for _, line := range []string{
		"# layer.inherited parameter owner (site.yaml <- parent.toml)",
		"# layer.overridden parameter root (site.yaml <- parent.toml)",
		"owner=ops\t# parameter",
		"root=/srv\t# parameter",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("expected %q in merge output:\n%s", line, out)
		}
	}
}

func TestDropInsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	site := writeDoc(t, dir, "site.yaml", siteDoc)
	dropins := filepath.Join(dir, "site.d")
	if err := os.Mkdir(dropins, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeDoc(t, dropins, "10-root.toml", "[params]\nroot = \"/data\"\n")

	out, stderr, err := run(t, "--log-level", "debug", "--config", site, "--dropins", dropins, "get", "data")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "/data/data\n" {
		t.Fatalf("expected drop-in root to win, got %q", out)
	}
	if !strings.Contains(stderr, "value in current layer overrides value from parent layer") {
		t.Fatalf("expected merge decisions in debug log, got %q", stderr)
	}
	if !strings.Contains(stderr, "params stats") {
		t.Fatalf("expected stats in debug log, got %q", stderr)
	}
}

func TestCheckCommand(t *testing.T) {
	site := writeDoc(t, t.TempDir(), "site.yaml", siteDoc)

	out, _, err := run(t, "--config", site, "check", "--rule", `root=root == "/srv"`)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out != "2 rules passed\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = run(t, "--config", site, "check", "--engine", "cel", "--rule", `db.port == "5432"`)
	if err != nil {
		t.Fatalf("cel check: %v", err)
	}
	if out != "2 rules passed\n" {
		t.Fatalf("unexpected output %q", out)
	}

	_, _, err = run(t, "--config", site, "check", "--rule", `port=port == "2"`)
	if exitCode(err) != exitFailure || !strings.Contains(err.Error(), "port") {
		t.Fatalf("expected failing rule, got %v", err)
	}

	_, _, err = run(t, "--config", site, "check", "--engine", "lua")
	if exitCode(err) != exitUsage {
		t.Fatalf("expected usage exit code for unknown engine, got %v", err)
	}
}

func TestParseRule(t *testing.T) {
	cases := []struct {
		raw  string
		want params.Rule
	}{
		{raw: `port=port > 0`, want: params.Rule{Name: "port", Expr: "port > 0"}},
		{raw: `db.port=db.port != ""`, want: params.Rule{Name: "db.port", Expr: `db.port != ""`}},
		{raw: `port == "1"`, want: params.Rule{Expr: `port == "1"`}},
		{raw: `port=="1"`, want: params.Rule{Expr: `port=="1"`}},
		{raw: `a<=b`, want: params.Rule{Expr: `a<=b`}},
		{raw: `enabled`, want: params.Rule{Expr: `enabled`}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, parseRule(tc.raw)); diff != "" {
			t.Fatalf("parseRule(%q) mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" error ": slog.LevelError,
		"warn":    slog.LevelWarn,
		"bogus":   slog.LevelWarn,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
