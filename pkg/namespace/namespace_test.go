package namespace

import (
	"slices"
	"testing"
)

func TestExtend_SkipsServicePrefix(t *testing.T) {
	root := Extend[string](nil, "calendar.events.list", "list")

	if _, ok := root.Child("calendar"); ok {
		t.Fatal("service prefix must not be materialized")
	}
	events, ok := root.Child("events")
	if !ok {
		t.Fatal("expected events container")
	}
	if events.IsLeaf() {
		t.Fatal("events should be a container, not a leaf")
	}
	leaf, ok := events.Child("list")
	if !ok {
		t.Fatal("expected list leaf")
	}
	if v, ok := leaf.Value(); !ok || v != "list" {
		t.Fatalf("unexpected leaf value %q (%v)", v, ok)
	}
}

func TestExtend_ReturnsSameRoot(t *testing.T) {
	root := New[int]()
	if got := Extend(root, "svc.a", 1); got != root {
		t.Fatal("Extend should return the root it was given")
	}
}

func TestInsert_Outcomes(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []Outcome
	}{
		{
			name:  "fresh path",
			paths: []string{"svc.ping"},
			want:  []Outcome{Installed},
		},
		{
			name:  "single segment",
			paths: []string{"svc"},
			want:  []Outcome{Skipped},
		},
		{
			name:  "empty identifier",
			paths: []string{""},
			want:  []Outcome{Skipped},
		},
		{
			name:  "duplicate path",
			paths: []string{"svc.a.b", "svc.a.b"},
			want:  []Outcome{Installed, Replaced},
		},
		{
			name:  "duplicate after stripping prefix",
			paths: []string{"one.a.b", "two.a.b"},
			want:  []Outcome{Installed, Replaced},
		},
		{
			name:  "shared prefix",
			paths: []string{"svc.events.list", "svc.events.insert"},
			want:  []Outcome{Installed, Installed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := New[string]()
			for i, p := range tt.paths {
				if got := root.Insert(p, p); got != tt.want[i] {
					t.Fatalf("Insert(%q) = %v, want %v", p, got, tt.want[i])
				}
			}
		})
	}
}

func TestInsert_SingleSegmentInstallsNothing(t *testing.T) {
	root := New[string]()
	root.Insert("svc", "x")
	if root.IsContainer() || root.IsLeaf() {
		t.Fatal("single-segment identifier must leave the tree untouched")
	}
	if _, ok := root.LookupID("svc"); ok {
		t.Fatal("single-segment identifier should not resolve")
	}
}

func TestInsert_EmptySegmentInstallsNothing(t *testing.T) {
	tests := []string{"svc.", "svc..get", "svc.a.", ".", "svc.a..b"}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			root := New[string]()
			if got := root.Insert(id, id); got != Skipped {
				t.Fatalf("Insert(%q) = %v, want skipped", id, got)
			}
			if root.IsContainer() || root.Len() != 0 {
				t.Fatalf("Insert(%q) changed the tree: %v", id, root.Paths())
			}
		})
	}
}

func TestWalkReportsEveryLeafUnderItsLookupPath(t *testing.T) {
	root := New[string]()
	for _, id := range []string{"svc.a", "svc.a.b", "svc.c.d.e"} {
		root.Insert(id, id)
	}
	root.Walk(func(path, v string) {
		n, ok := root.Lookup(path)
		if !ok {
			t.Fatalf("Walk reported %q, which Lookup cannot resolve", path)
		}
		if got, _ := n.Value(); got != v {
			t.Fatalf("Lookup(%q) = %q, want %q", path, got, v)
		}
	})
	if root.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", root.Len())
	}
}

func TestInsert_LastWins(t *testing.T) {
	root := New[string]()
	root.Insert("svc.a.b", "first")
	root.Insert("svc.a.b", "second")

	n, ok := root.Lookup("a.b")
	if !ok {
		t.Fatal("expected a.b")
	}
	if v, _ := n.Value(); v != "second" {
		t.Fatalf("expected last registration to win, got %q", v)
	}
}

func TestInsert_PrefixKeepsBothLeaves(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{name: "container first", order: []string{"svc.a.b", "svc.a"}},
		{name: "leaf first", order: []string{"svc.a", "svc.a.b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := New[string]()
			for _, p := range tt.order {
				root.Insert(p, p)
			}
			a, ok := root.Lookup("a")
			if !ok || !a.IsLeaf() || !a.IsContainer() {
				t.Fatalf("expected a to be both leaf and container")
			}
			if v, _ := a.Value(); v != "svc.a" {
				t.Fatalf("unexpected value at a: %q", v)
			}
			b, ok := root.Lookup("a.b")
			if !ok {
				t.Fatal("a.b should survive")
			}
			if v, _ := b.Value(); v != "svc.a.b" {
				t.Fatalf("unexpected value at a.b: %q", v)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	root := New[int]()
	root.Insert("svc.events.list", 1)

	if n, ok := root.Lookup(""); !ok || n != root {
		t.Fatal("empty path should resolve to the root")
	}
	if _, ok := root.Lookup("events.missing"); ok {
		t.Fatal("unexpected match for missing leaf")
	}
	if _, ok := root.Lookup("events.list.deeper"); ok {
		t.Fatal("unexpected match below leaf")
	}
	n, ok := root.LookupID("anything.events.list")
	if !ok {
		t.Fatal("LookupID should strip the first segment")
	}
	if v, _ := n.Value(); v != 1 {
		t.Fatalf("unexpected value %d", v)
	}

	var nilNode *Node[int]
	if _, ok := nilNode.Lookup("a"); ok {
		t.Fatal("nil node should not resolve")
	}
}

func TestWalkAndPaths(t *testing.T) {
	root := New[string]()
	for _, id := range []string{
		"calendar.events.list",
		"calendar.events.insert",
		"calendar.acl.rules.get",
		"calendar.colors",
		"calendar",
	} {
		root.Insert(id, id)
	}

	want := []string{"acl.rules.get", "colors", "events.insert", "events.list"}
	if got := root.Paths(); !slices.Equal(got, want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	if root.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", root.Len())
	}

	var seen []string
	root.Walk(func(path, v string) {
		seen = append(seen, path+"="+v)
	})
	if seen[0] != "acl.rules.get=calendar.acl.rules.get" {
		t.Fatalf("unexpected first walk entry %q", seen[0])
	}

	if got := root.Children(); !slices.Equal(got, []string{"acl", "colors", "events"}) {
		t.Fatalf("Children() = %v", got)
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{
		Installed:   "installed",
		Replaced:    "replaced",
		Skipped:     "skipped",
		Outcome(42): "unknown",
	} {
		if got := o.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", o, got, want)
		}
	}
}
