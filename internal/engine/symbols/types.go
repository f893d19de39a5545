package symbols

import (
	"path/filepath"
	"strings"
)

// TypeKind is the declaration keyword a top-level type was introduced with.
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindAnnotation TypeKind = "annotation"
	KindRecord     TypeKind = "record"
)

// TypeEntry describes one top-level type and the document it is rendered in.
type TypeEntry struct {
	QualifiedName string
	SimpleName    string
	PackageName   string
	OutputPath    string
	SourcePath    string
	Line          int
	Kind          TypeKind
}

// Import is one import declaration. Path is the imported type's qualified
// name, or the package name for a wildcard import.
type Import struct {
	Path     string
	Wildcard bool
	Static   bool
	Line     int
}

// SimpleName is the last segment of a single-type import.
func (i Import) SimpleName() string {
	if i.Wildcard {
		return ""
	}
	return lastSegment(i.Path)
}

// Declaration is a top-level type found in a file header.
type Declaration struct {
	Name string
	Kind TypeKind
	Line int
}

// Header is everything the symbol table and the resolver need from a file:
// its package, its imports and its top-level types.
type Header struct {
	Package string
	Imports []Import
	Types   []Declaration
}

// Qualify joins a package and a simple name. Types of the default package
// are qualified by their simple name alone.
func Qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// PackageDir maps a package name to its directory below the destination
// root ("com.example" -> "com/example").
func PackageDir(pkg string) string {
	if pkg == "" {
		return ""
	}
	return filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/"))
}

// DocumentPath is where the rendered page of sourcePath lives: the package
// directory below destRoot and the source file's base name with .html.
func DocumentPath(destRoot, pkg, sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(destRoot, PackageDir(pkg), base+".html")
}

func lastSegment(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
