package symbols

import (
	"sort"
)

// Duplicate records a type declared twice under the same qualified name.
// The first registration is kept.
type Duplicate struct {
	QualifiedName string
	KeptSource    string
	IgnoredSource string
	Line          int
}

// Table maps qualified type names to their entries. A Table is built once
// by a Builder and has no mutating methods, so it can be shared between
// goroutines without locking.
type Table struct {
	byQualified map[string]TypeEntry
	byPackage   map[string][]string
	packages    []string
}

// SymbolLookupTable is the read side of the table used by the resolver.
type SymbolLookupTable interface {
	Lookup(qualifiedName string) (TypeEntry, bool)
	LookupInPackage(pkg, simpleName string) (TypeEntry, bool)
	HasPackage(pkg string) bool
}

var _ SymbolLookupTable = (*Table)(nil)

func (t *Table) Lookup(qualifiedName string) (TypeEntry, bool) {
	if t == nil {
		return TypeEntry{}, false
	}
	entry, ok := t.byQualified[qualifiedName]
	return entry, ok
}

func (t *Table) LookupInPackage(pkg, simpleName string) (TypeEntry, bool) {
	return t.Lookup(Qualify(pkg, simpleName))
}

func (t *Table) HasPackage(pkg string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byPackage[pkg]
	return ok
}

// Package returns the entries of pkg sorted by simple name.
func (t *Table) Package(pkg string) []TypeEntry {
	if t == nil {
		return nil
	}
	names := t.byPackage[pkg]
	out := make([]TypeEntry, 0, len(names))
	for _, name := range names {
		out = append(out, t.byQualified[name])
	}
	return out
}

// Packages returns every package that declares at least one type, sorted.
// The default package is the empty string.
func (t *Table) Packages() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.packages...)
}

// Entries returns every entry sorted by qualified name.
func (t *Table) Entries() []TypeEntry {
	if t == nil {
		return nil
	}
	out := make([]TypeEntry, 0, len(t.byQualified))
	for _, pkg := range t.packages {
		out = append(out, t.Package(pkg)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byQualified)
}

// Builder collects declarations file by file. Registration order decides
// which of two duplicate declarations wins, so callers add files in a
// stable order.
type Builder struct {
	destRoot   string
	entries    map[string]TypeEntry
	packages   map[string][]string
	duplicates []Duplicate
	built      bool
}

func NewBuilder(destRoot string) *Builder {
	return &Builder{
		destRoot: destRoot,
		entries:  make(map[string]TypeEntry),
		packages: make(map[string][]string),
	}
}

// Add registers the types of one file and returns the declarations that
// were ignored because their qualified name was already taken.
func (b *Builder) Add(sourcePath string, header Header) []Duplicate {
	if b.built {
		panic("symbols: Builder.Add called after Build")
	}
	docPath := DocumentPath(b.destRoot, header.Package, sourcePath)
	var dups []Duplicate
	for _, decl := range header.Types {
		qualified := Qualify(header.Package, decl.Name)
		if existing, ok := b.entries[qualified]; ok {
			dups = append(dups, Duplicate{
				QualifiedName: qualified,
				KeptSource:    existing.SourcePath,
				IgnoredSource: sourcePath,
				Line:          decl.Line,
			})
			continue
		}
		b.entries[qualified] = TypeEntry{
			QualifiedName: qualified,
			SimpleName:    decl.Name,
			PackageName:   header.Package,
			OutputPath:    docPath,
			SourcePath:    sourcePath,
			Line:          decl.Line,
			Kind:          decl.Kind,
		}
		b.packages[header.Package] = append(b.packages[header.Package], qualified)
	}
	b.duplicates = append(b.duplicates, dups...)
	return dups
}

// Duplicates returns every duplicate seen so far.
func (b *Builder) Duplicates() []Duplicate {
	return append([]Duplicate(nil), b.duplicates...)
}

// Build seals the builder and returns the immutable table.
func (b *Builder) Build() *Table {
	if b.built {
		panic("symbols: Builder.Build called twice")
	}
	b.built = true

	t := &Table{
		byQualified: b.entries,
		byPackage:   b.packages,
		packages:    make([]string, 0, len(b.packages)),
	}
	for pkg, names := range t.byPackage {
		sort.Slice(names, func(i, j int) bool {
			return t.byQualified[names[i]].SimpleName < t.byQualified[names[j]].SimpleName
		})
		t.packages = append(t.packages, pkg)
	}
	sort.Strings(t.packages)

	b.entries = nil
	b.packages = nil
	return t
}
