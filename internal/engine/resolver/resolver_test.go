// # internal/engine/resolver/resolver_test.go
package resolver

import (
	"reflect"
	"testing"

	"xref/internal/engine/symbols"
	"xref/internal/shared/util"
)

func buildTable(t *testing.T, files map[string]symbols.Header) *symbols.Table {
	t.Helper()
	b := symbols.NewBuilder("/out")
	for _, path := range util.SortedStringKeys(files) {
		if dups := b.Add(path, files[path]); len(dups) > 0 {
			t.Fatalf("unexpected duplicates: %+v", dups)
		}
	}
	return b.Build()
}

func decl(name string) symbols.Declaration {
	return symbols.Declaration{Name: name, Kind: symbols.KindClass, Line: 1}
}

func fixtureTable(t *testing.T) *symbols.Table {
	return buildTable(t, map[string]symbols.Header{
		"pkg/Foo.java":    {Package: "pkg", Types: []symbols.Declaration{decl("Foo")}},
		"other/Foo.java":  {Package: "other", Types: []symbols.Declaration{decl("Foo")}},
		"other/Bar.java":  {Package: "other", Types: []symbols.Declaration{decl("Bar")}},
		"third/Bar.java":  {Package: "third", Types: []symbols.Declaration{decl("Bar")}},
		"third/Only.java": {Package: "third", Types: []symbols.Declaration{decl("Only")}},
		"app/Main.java":   {Package: "app", Types: []symbols.Declaration{decl("Main"), decl("Local")}},
		"app/Foo.java":    {Package: "app", Types: []symbols.Declaration{decl("Foo")}},
		"Top.java":        {Types: []symbols.Declaration{decl("Top")}},
	})
}

func TestResolve_ExplicitImportBeatsWildcardAndPackage(t *testing.T) {
	r := New(fixtureTable(t), FileContext{
		Package: "app",
		Imports: []symbols.Import{
			{Path: "other", Wildcard: true},
			{Path: "pkg.Foo"},
		},
	})

	for i := 0; i < 3; i++ {
		link := r.Resolve("Foo")
		if !link.Resolved || link.Entry.QualifiedName != "pkg.Foo" {
			t.Fatalf("occurrence %d: expected pkg.Foo, got %+v", i, link)
		}
		if link.Rule != RuleSingleTypeImport {
			t.Errorf("expected rule %s, got %s", RuleSingleTypeImport, link.Rule)
		}
	}
}

func TestResolve_AmbiguousWildcards(t *testing.T) {
	r := New(fixtureTable(t), FileContext{
		Package: "app",
		Imports: []symbols.Import{
			{Path: "other", Wildcard: true},
			{Path: "third", Wildcard: true},
		},
	})

	link := r.Resolve("Bar")
	if link.Resolved {
		t.Fatalf("expected Bar to be unresolved, got %+v", link)
	}
	if !link.Ambiguous() {
		t.Fatalf("expected ambiguity, got %+v", link)
	}
	if want := []string{"other.Bar", "third.Bar"}; !reflect.DeepEqual(link.Candidates, want) {
		t.Errorf("candidates = %v, want %v", link.Candidates, want)
	}

	only := r.Resolve("Only")
	if !only.Resolved || only.Entry.QualifiedName != "third.Only" || only.Rule != RuleWildcardImport {
		t.Errorf("expected unique wildcard match third.Only, got %+v", only)
	}
}

func TestResolve_Precedence(t *testing.T) {
	table := fixtureTable(t)

	tests := []struct {
		name     string
		ctx      FileContext
		ident    string
		want     string
		wantRule Rule
	}{
		{
			name:     "same package beats wildcard",
			ctx:      FileContext{Package: "app", Imports: []symbols.Import{{Path: "other", Wildcard: true}}},
			ident:    "Foo",
			want:     "app.Foo",
			wantRule: RuleSamePackage,
		},
		{
			name:     "secondary type of same package",
			ctx:      FileContext{Package: "app"},
			ident:    "Local",
			want:     "app.Local",
			wantRule: RuleSamePackage,
		},
		{
			name:     "qualified name",
			ctx:      FileContext{Package: "app"},
			ident:    "third.Only",
			want:     "third.Only",
			wantRule: RuleQualifiedName,
		},
		{
			name:     "default package from default package",
			ctx:      FileContext{},
			ident:    "Top",
			want:     "Top",
			wantRule: RuleSamePackage,
		},
		{
			name:  "no implicit lookup of other packages",
			ctx:   FileContext{Package: "app"},
			ident: "Only",
		},
		{
			name:  "default package type is not visible from a named package",
			ctx:   FileContext{Package: "app"},
			ident: "Top",
		},
		{
			name:  "static imports do not import types",
			ctx:   FileContext{Package: "app", Imports: []symbols.Import{{Path: "third.Only", Static: true}, {Path: "third", Wildcard: true, Static: true}}},
			ident: "Only",
		},
		{
			name:  "unknown identifier",
			ctx:   FileContext{Package: "app"},
			ident: "String",
		},
		{
			name:  "empty identifier",
			ctx:   FileContext{Package: "app"},
			ident: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := New(table, tt.ctx).Resolve(tt.ident)
			if tt.want == "" {
				if link.Resolved {
					t.Fatalf("expected unresolved, got %s", link.Entry.QualifiedName)
				}
				return
			}
			if !link.Resolved {
				t.Fatalf("expected %s, got unresolved %+v", tt.want, link)
			}
			if link.Entry.QualifiedName != tt.want {
				t.Errorf("resolved to %s, want %s", link.Entry.QualifiedName, tt.want)
			}
			if link.Rule != tt.wantRule {
				t.Errorf("rule %s, want %s", link.Rule, tt.wantRule)
			}
		})
	}
}

func TestResolve_ExternalImportShadowsPackage(t *testing.T) {
	r := New(fixtureTable(t), FileContext{
		Package: "app",
		Imports: []symbols.Import{{Path: "java.util.Foo"}},
	})

	link := r.Resolve("Foo")
	if link.Resolved {
		t.Fatalf("expected external import to shadow app.Foo, got %+v", link)
	}
	if link.External != "java.util.Foo" {
		t.Errorf("External = %q, want java.util.Foo", link.External)
	}
}

func TestResolve_FirstSingleTypeImportWins(t *testing.T) {
	r := New(fixtureTable(t), FileContext{
		Package: "app",
		Imports: []symbols.Import{{Path: "pkg.Foo"}, {Path: "other.Foo"}},
	})
	if got := r.Resolve("Foo").Entry.QualifiedName; got != "pkg.Foo" {
		t.Errorf("got %s, want pkg.Foo", got)
	}
}

func TestResolveChain(t *testing.T) {
	r := New(fixtureTable(t), FileContext{
		Package: "app",
		Imports: []symbols.Import{{Path: "java.util.List"}},
	})

	tests := []struct {
		parts    []string
		want     string
		external string
		consumed int
	}{
		{parts: []string{"third", "Only"}, want: "third.Only", consumed: 2},
		{parts: []string{"third", "Only", "CONSTANT"}, want: "third.Only", consumed: 2},
		{parts: []string{"Local", "helper"}, want: "app.Local", consumed: 1},
		{parts: []string{"java", "util", "List"}, external: "java.util.List", consumed: 3},
		{parts: []string{"List", "of"}, external: "java.util.List", consumed: 1},
		{parts: []string{"System", "out", "println"}, consumed: 0},
		{parts: nil, consumed: 0},
	}

	for _, tt := range tests {
		link, n := r.ResolveChain(tt.parts)
		if n != tt.consumed {
			t.Errorf("ResolveChain(%v) consumed %d, want %d", tt.parts, n, tt.consumed)
		}
		if tt.want != "" && (!link.Resolved || link.Entry.QualifiedName != tt.want) {
			t.Errorf("ResolveChain(%v) = %+v, want %s", tt.parts, link, tt.want)
		}
		if link.External != tt.external {
			t.Errorf("ResolveChain(%v) external = %q, want %q", tt.parts, link.External, tt.external)
		}
	}
}

func TestFileContext(t *testing.T) {
	h := symbols.Header{
		Package: "p",
		Imports: []symbols.Import{
			{Path: "a.B"},
			{Path: "c", Wildcard: true},
			{Path: "d.E.f", Static: true},
		},
	}
	ctx := NewFileContext(h)
	h.Imports[0].Path = "mutated"

	if ctx.Imports[0].Path != "a.B" {
		t.Fatalf("file context shares the header's import slice")
	}
	single := ctx.SingleTypeImports()
	if len(single) != 1 || single[0].Path != "a.B" {
		t.Errorf("SingleTypeImports = %+v", single)
	}
}
