// # internal/engine/resolver/resolver.go
package resolver

import (
	"strings"

	"xref/internal/engine/symbols"
)

// Rule identifies which step of the lookup chain produced a link.
type Rule int

const (
	RuleNone Rule = iota
	RuleSingleTypeImport
	RuleSamePackage
	RuleWildcardImport
	RuleQualifiedName
)

func (r Rule) String() string {
	switch r {
	case RuleSingleTypeImport:
		return "single-type-import"
	case RuleSamePackage:
		return "same-package"
	case RuleWildcardImport:
		return "wildcard-import"
	case RuleQualifiedName:
		return "qualified-name"
	default:
		return "none"
	}
}

// Link is the outcome of resolving one identifier occurrence. The zero
// value is Unresolved.
type Link struct {
	Resolved bool
	Entry    symbols.TypeEntry
	Rule     Rule
	// Candidates lists the qualified names found in more than one
	// wildcard-imported package when the lookup was ambiguous.
	Candidates []string
	// External is the qualified name of an explicitly imported type that
	// is not part of the local table.
	External string
}

func Unresolved() Link {
	return Link{}
}

func ResolvedTo(entry symbols.TypeEntry, rule Rule) Link {
	return Link{Resolved: true, Entry: entry, Rule: rule}
}

// Ambiguous reports whether the lookup stopped on competing wildcard
// imports.
func (l Link) Ambiguous() bool {
	return !l.Resolved && len(l.Candidates) > 1
}

// FileContext is what a file declares about its scope: the package and
// the imports in source order. It only holds names; entries stay owned by
// the symbol table.
type FileContext struct {
	Package string
	Imports []symbols.Import
}

func NewFileContext(h symbols.Header) FileContext {
	return FileContext{
		Package: h.Package,
		Imports: append([]symbols.Import(nil), h.Imports...),
	}
}

// SingleTypeImports returns the non-static single-type imports.
func (c FileContext) SingleTypeImports() []symbols.Import {
	var out []symbols.Import
	for _, imp := range c.Imports {
		if !imp.Static && !imp.Wildcard {
			out = append(out, imp)
		}
	}
	return out
}

type lookupFunc func(r *Resolver, name string) (Link, bool)

// chain is the resolution order. The first lookup that reports a match
// decides the result; later lookups are never consulted.
var chain = []lookupFunc{
	(*Resolver).lookupSingleTypeImport,
	(*Resolver).lookupSamePackage,
	(*Resolver).lookupWildcardImports,
	(*Resolver).lookupQualifiedName,
}

// Resolver answers "which type does this name refer to" for one file.
// It only reads the table, so resolvers of different files can run in
// parallel over the same table.
type Resolver struct {
	table     symbols.SymbolLookupTable
	pkg       string
	single    map[string]string
	wildcards []string
}

func New(table symbols.SymbolLookupTable, ctx FileContext) *Resolver {
	r := &Resolver{
		table:  table,
		pkg:    ctx.Package,
		single: make(map[string]string),
	}
	seen := make(map[string]bool)
	for _, imp := range ctx.Imports {
		// Static imports bring members into scope, never types.
		if imp.Static {
			continue
		}
		if imp.Wildcard {
			if !seen[imp.Path] {
				seen[imp.Path] = true
				r.wildcards = append(r.wildcards, imp.Path)
			}
			continue
		}
		if _, ok := r.single[imp.SimpleName()]; !ok {
			r.single[imp.SimpleName()] = imp.Path
		}
	}
	return r
}

// Resolve runs the lookup chain for name, which is either a simple
// identifier or a dotted qualified name.
func (r *Resolver) Resolve(name string) Link {
	if name == "" {
		return Unresolved()
	}
	for _, lookup := range chain {
		if link, matched := lookup(r, name); matched {
			return link
		}
	}
	return Unresolved()
}

// 1. Explicit single-type import. An import of a type the table does not
// know still shadows the other rules, so it stops the chain unresolved.
func (r *Resolver) lookupSingleTypeImport(name string) (Link, bool) {
	qualified, ok := r.single[name]
	if !ok {
		return Link{}, false
	}
	if entry, found := r.table.Lookup(qualified); found {
		return ResolvedTo(entry, RuleSingleTypeImport), true
	}
	return Link{External: qualified}, true
}

// 2. Same package as the current file.
func (r *Resolver) lookupSamePackage(name string) (Link, bool) {
	if strings.Contains(name, ".") {
		return Link{}, false
	}
	entry, ok := r.table.LookupInPackage(r.pkg, name)
	if !ok {
		return Link{}, false
	}
	return ResolvedTo(entry, RuleSamePackage), true
}

// 3. Exactly one wildcard-imported package declares name. Two or more is
// ambiguous and stops the chain unresolved.
func (r *Resolver) lookupWildcardImports(name string) (Link, bool) {
	if strings.Contains(name, ".") || len(r.wildcards) == 0 {
		return Link{}, false
	}
	var found []symbols.TypeEntry
	for _, pkg := range r.wildcards {
		if entry, ok := r.table.LookupInPackage(pkg, name); ok {
			found = append(found, entry)
		}
	}
	switch len(found) {
	case 0:
		return Link{}, false
	case 1:
		return ResolvedTo(found[0], RuleWildcardImport), true
	default:
		candidates := make([]string, 0, len(found))
		for _, entry := range found {
			candidates = append(candidates, entry.QualifiedName)
		}
		return Link{Candidates: candidates}, true
	}
}

// 4. The name is already fully qualified.
func (r *Resolver) lookupQualifiedName(name string) (Link, bool) {
	if !strings.Contains(name, ".") {
		return Link{}, false
	}
	entry, ok := r.table.Lookup(name)
	if !ok {
		return Link{}, false
	}
	return ResolvedTo(entry, RuleQualifiedName), true
}
