package params

import (
	"errors"
	"testing"

	"github.com/goliatone/go-params/pkg/activity"
)

func TestNewScopeCopiesMetadata(t *testing.T) {
	meta := map[string]any{"owner": "system"}
	scope := NewScope("system", 50,
		WithScopeLabel("System Defaults"),
		WithScopeMetadata(meta),
	)
	meta["owner"] = "mutated"

	if got := scope.Metadata["owner"]; got != "system" {
		t.Fatalf("expected metadata copy to remain 'system', got %q", got)
	}
	if scope.DisplayName() != "System Defaults" {
		t.Fatalf("label not set, got %q", scope.DisplayName())
	}
	if NewScope("bare", 1).DisplayName() != "bare" {
		t.Fatalf("display name should fall back to the scope name")
	}
}

func TestNewStackOrdersAndValidates(t *testing.T) {
	user := NewLayer(NewScope("user", 300), NewStore())
	site := NewLayer(NewScope("site", 200), NewStore())
	system := NewLayer(NewScope("system", 100), NewStore())

	stack, err := NewStack(system, user, site)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := stack.Layers()
	for i, want := range []string{"user", "site", "system"} {
		if layers[i].Scope.Name != want {
			t.Fatalf("expected layer %d to be %q, got %q", i, want, layers[i].Scope.Name)
		}
	}

	if _, err := NewStack(user, NewLayer(NewScope("user", 50), NewStore())); !errors.Is(err, ErrDuplicateScopeName) {
		t.Fatalf("expected duplicate scope name error, got %v", err)
	}
	if _, err := NewStack(user, NewLayer(NewScope("other", 300), NewStore())); !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected priority order error, got %v", err)
	}
	if _, err := NewStack(NewLayer(NewScope("", 1), NewStore())); !errors.Is(err, ErrScopeNameRequired) {
		t.Fatalf("expected scope name error, got %v", err)
	}
	if _, err := NewStack(NewLayer(NewScope("nil", 1), nil)); !errors.Is(err, ErrNilStore) {
		t.Fatalf("expected nil store error, got %v", err)
	}
}

func TestStackPushPop(t *testing.T) {
	stack, err := NewStack(NewLayer(NewScope("system", 100), NewStore()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stack.Push(NewLayer(NewScope("user", 300), NewStore())); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Push(NewLayer(NewScope("site", 200), NewStore())); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Push(NewLayer(NewScope("site", 250), NewStore())); !errors.Is(err, ErrDuplicateScopeName) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if top, ok := stack.Peek(); !ok || top.Scope.Name != "user" {
		t.Fatalf("expected user on top, got %+v", top)
	}

	var popped []string
	for stack.Len() > 0 {
		layer, _ := stack.Pop()
		popped = append(popped, layer.Scope.Name)
	}
	if len(popped) != 3 || popped[0] != "user" || popped[1] != "site" || popped[2] != "system" {
		t.Fatalf("unexpected pop order %v", popped)
	}
	if _, ok := stack.Pop(); ok {
		t.Fatalf("pop on empty stack should report false")
	}
}

func TestStackMerge(t *testing.T) {
	system := NewStore(WithName("system"))
	system.AddDefault("log.level", "info")
	system.AddParameter(NewParameter("root", "/opt"))
	system.AddParameter(NewParameter("data", "{$root}/data"))

	site := NewStore(WithName("site"))
	site.AddParameter(NewParameter("root", "/srv"))

	user := NewStore(WithName("user"))
	user.AddParameter(NewParameter("log.level", "debug"))

	capture := &activity.CaptureHook{}
	conf, err := SystemSiteUser(system, site, user, WithHooks(capture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _, err := conf.String("data"); err != nil || v != "/srv/data" {
		t.Fatalf("expected site root to reach system data, got %q, %v", v, err)
	}
	if v, _, _ := conf.String("log.level"); v != "debug" {
		t.Fatalf("expected user level, got %q", v)
	}
	if conf.Name() != "merged" {
		t.Fatalf("expected default merged name, got %q", conf.Name())
	}
	if _, ok := site.Parameter("data"); ok {
		t.Fatalf("merge must not modify layer stores")
	}

	overridden := capture.ByVerb(activity.VerbOverridden)
	if len(overridden) != 1 || overridden[0].ObjectID != "root" || overridden[0].Source != "system" {
		t.Fatalf("expected system root to be overridden once, got %+v", overridden)
	}
	for _, e := range capture.Events {
		if e.Metadata["prefix"] == nil {
			t.Fatalf("merge events should carry the scope prefix, got %+v", e)
		}
	}
}

func TestStackMergeEmpty(t *testing.T) {
	stack, err := NewStack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := stack.Merge(); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
	if _, err := SystemSiteUser(nil, nil, nil); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack without stores, got %v", err)
	}
}
