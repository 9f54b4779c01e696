package params

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-params/pkg/activity"
)

func TestStoreLookupPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		param      *Parameter
		def        *string
		wantFound  bool
		wantValues []string
	}{
		{name: "actual wins", param: NewParameter("k", "actual"), def: strPtr("default"), wantFound: true, wantValues: []string{"actual"}},
		{name: "empty actual uses default", param: NewParameter("k", ""), def: strPtr("default"), wantFound: true, wantValues: []string{"default"}},
		{name: "valueless actual uses default", param: NewParameter("k"), def: strPtr("default"), wantFound: true, wantValues: []string{"default"}},
		{name: "default only", def: strPtr("default"), wantFound: true, wantValues: []string{"default"}},
		{name: "empty default is still a default", def: strPtr(""), wantFound: true, wantValues: []string{""}},
		{name: "empty actual without default is absent", param: NewParameter("k", "")},
		{name: "nothing", wantFound: false},
		{name: "multi-valued actual", param: NewParameter("k", "a", "b"), wantFound: true, wantValues: []string{"a", "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			if tc.param != nil {
				store.AddParameter(tc.param)
			}
			if tc.def != nil {
				store.AddDefault("k", *tc.def)
			}
			p, ok := store.Lookup("k")
			if ok != tc.wantFound {
				t.Fatalf("expected found=%v, got %v", tc.wantFound, ok)
			}
			if !ok {
				if p != nil {
					t.Fatalf("expected nil parameter when absent")
				}
				return
			}
			if diff := cmp.Diff(tc.wantValues, p.Values()); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
			if p.Name() != "k" {
				t.Fatalf("expected name k, got %q", p.Name())
			}
		})
	}
}

func TestStoreLookupReturnsStoredParameter(t *testing.T) {
	store := NewStore()
	p := NewParameter("k", "v")
	store.AddParameter(p)
	got, ok := store.Lookup("k")
	if !ok || got != p {
		t.Fatalf("expected stored parameter back")
	}
}

func TestStoreLookupScopedOrder(t *testing.T) {
	store := NewStore()
	store.AddDefault("url", "default-url")
	store.AddParameter(NewParameter("url", "global-url"))
	store.AddDefault("svc.url", "svc-default")

	p, ok := store.LookupScoped("svc", "url")
	if !ok || mustFirst(t, p) != "svc-default" {
		t.Fatalf("scoped default should beat unscoped actual, got %v", p)
	}

	store.AddParameter(NewParameter("svc.url", "svc-actual"))
	p, _ = store.LookupScoped("svc", "url")
	if mustFirst(t, p) != "svc-actual" {
		t.Fatalf("scoped actual should win, got %v", p)
	}

	p, _ = store.LookupScoped("other", "url")
	if mustFirst(t, p) != "global-url" {
		t.Fatalf("unknown prefix should fall back to unscoped actual, got %v", p)
	}

	p, _ = store.LookupScoped("", "url")
	if mustFirst(t, p) != "global-url" {
		t.Fatalf("empty prefix should look up name only, got %v", p)
	}

	if _, ok := store.LookupScoped("svc", "missing"); ok {
		t.Fatalf("expected absent")
	}
}

func TestStoreSingleValue(t *testing.T) {
	store := NewStore()
	store.AddParameter(NewParameter("one", "x"))
	store.AddParameter(NewParameter("many", "x", "y"))

	if v, ok, err := store.SingleValue("one"); v != "x" || !ok || err != nil {
		t.Fatalf("unexpected single value %q %v %v", v, ok, err)
	}
	if _, _, err := store.SingleValue("many"); err == nil {
		t.Fatalf("expected multi-value error")
	}
	if _, ok, err := store.SingleValue("nope"); ok || err != nil {
		t.Fatalf("expected absent without error")
	}
}

func TestStoreOverwriteEmitsEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	store := NewStore(WithName("site"), WithHooks(capture))

	store.AddParameter(NewParameter("k", "old"))
	store.AddDefault("d", "1")
	if len(capture.Events) != 0 {
		t.Fatalf("first insert must not emit, got %d events", len(capture.Events))
	}

	store.AddParameter(NewParameter("k", "new"))
	store.AddDefault("d", "2")

	params := capture.ByVerb(activity.VerbParameterOverwritten)
	if len(params) != 1 {
		t.Fatalf("expected one parameter overwrite, got %d", len(params))
	}
	if params[0].Value != "k=[new]" || params[0].OldValue != "k=[old]" {
		t.Fatalf("expected old and new parameter, got %+v", params[0])
	}
	if params[0].Layer != "site" || params[0].Channel != activity.DefaultChannel {
		t.Fatalf("expected layer and channel defaults, got %+v", params[0])
	}
	defaults := capture.ByVerb(activity.VerbDefaultOverwritten)
	if len(defaults) != 1 || defaults[0].Value != "2" || defaults[0].OldValue != "1" {
		t.Fatalf("unexpected default overwrite events %+v", defaults)
	}

	got, _ := store.Lookup("k")
	if mustFirst(t, got) != "new" {
		t.Fatalf("overwrite should replace the entry")
	}
}

func TestStoreOverwriteLogsThroughLogHook(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := NewStore(WithHooks(activity.LogHook{Logger: logger}))

	store.AddParameter(NewParameter("k", "a"))
	store.AddParameter(NewParameter("k", "b"))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "k=[b]") {
		t.Fatalf("expected warning naming the new parameter, got %q", out)
	}
}

func TestStoreDisabledActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	store := NewStore(WithHooks(capture), WithActivityConfig(activity.Config{Enabled: false}))
	store.AddDefault("d", "1")
	store.AddDefault("d", "2")
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emitter must not notify, got %d events", len(capture.Events))
	}
}

func TestStoreIntrospection(t *testing.T) {
	store := NewStore(WithName("base"))
	store.AddParameter(NewParameter("b", "2"))
	store.AddParameter(NewParameter("a", "1"))
	store.AddDefault("c", "3")
	store.AddDefault("a", "0")
	store.AddParameter(nil)

	if diff := cmp.Diff([]string{"a", "b", "c"}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 names, got %d", store.Len())
	}
	params := store.Parameters()
	if len(params) != 2 || params[0].Name() != "a" || params[1].Name() != "b" {
		t.Fatalf("expected sorted parameters, got %v", params)
	}
	defaults := store.Defaults()
	defaults["c"] = "mutated"
	if v, _ := store.Default("c"); v != "3" {
		t.Fatalf("Defaults should return a copy")
	}

	clone := store.Clone()
	clone.AddParameter(NewParameter("a", "changed"))
	if p, _ := store.Parameter("a"); mustFirst(t, p) != "1" {
		t.Fatalf("clone must not share state with the original")
	}
	if clone.Name() != "base" {
		t.Fatalf("clone should keep the store name, got %q", clone.Name())
	}
}

func strPtr(s string) *string {
	return &s
}

func mustFirst(t *testing.T, p *Parameter) string {
	t.Helper()
	v, ok := p.FirstValue()
	if !ok {
		t.Fatalf("expected a value for %v", p)
	}
	return v
}
