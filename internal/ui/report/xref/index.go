package xref

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"

	"xref/internal/engine/linkpath"
	"xref/internal/engine/symbols"
)

// DefaultPackageDir holds the listing of types without a package
// declaration. No Java package can be named like this.
const DefaultPackageDir = "default-package"

// EmittedDocument is a document the emission phase committed to disk.
type EmittedDocument struct {
	SourcePath string
	OutputPath string
	Package    string
}

// Page is one generated navigation page.
type Page struct {
	Path    string
	Content string
}

// Indexer builds the overview and per-package pages once every document
// has been emitted.
type Indexer struct {
	opts Options
}

func NewIndexer(opts Options) *Indexer {
	return &Indexer{opts: opts}
}

// PackageIndexPath is where the listing of pkg is written.
func PackageIndexPath(destRoot, pkg string) string {
	if pkg == "" {
		return filepath.Join(destRoot, DefaultPackageDir, indexName)
	}
	return filepath.Join(destRoot, symbols.PackageDir(pkg), indexName)
}

// ReservedPath reports whether path under destRoot is written by the
// indexer. Every directory holding documents gets an index.html, and the
// root also holds the stylesheet.
func ReservedPath(destRoot, path string) bool {
	if filepath.Base(path) == indexName {
		return true
	}
	return filepath.Clean(path) == filepath.Join(destRoot, stylesheetName)
}

const indexName = "index.html"

type indexLink struct {
	Name string
	Kind string
	Href string
}

type packagePageData struct {
	Title      string
	DocTitle   string
	Package    string
	Stylesheet string
	Overview   string
	Types      []indexLink
	Files      []indexLink
	Bottom     template.HTML
}

type overviewPageData struct {
	Title      string
	DocTitle   string
	Stylesheet string
	Packages   []indexLink
	Bottom     template.HTML
}

var packageTemplate = template.Must(template.New("package").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="{{.Charset}}">
<title>{{.Data.Title}}</title>
<link type="text/css" rel="stylesheet" href="{{.Data.Stylesheet}}">
</head>
<body>
<p><a href="{{.Data.Overview}}">Overview</a></p>
<h1>{{.Data.Package}}</h1>
{{- if .Data.Types}}
<h2>Types</h2>
<ul class="xref-index">
{{- range .Data.Types}}
<li>{{if .Href}}<a href="{{.Href}}">{{.Name}}</a>{{else}}<span class="missing">{{.Name}}</span>{{end}} <span class="kind">{{.Kind}}</span></li>
{{- end}}
</ul>
{{- end}}
{{- if .Data.Files}}
<h2>Source files</h2>
<ul class="xref-index">
{{- range .Data.Files}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
{{- end}}
<hr>
<div class="bottom">{{.Data.Bottom}}</div>
</body>
</html>
`))

var overviewTemplate = template.Must(template.New("overview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="{{.Charset}}">
<title>{{.Data.Title}}</title>
<link type="text/css" rel="stylesheet" href="{{.Data.Stylesheet}}">
</head>
<body>
{{- if .Data.DocTitle}}
<h1>{{.Data.DocTitle}}</h1>
{{- end}}
<h2>Packages</h2>
<ul class="xref-index">
{{- range .Data.Packages}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
<hr>
<div class="bottom">{{.Data.Bottom}}</div>
</body>
</html>
`))

// Pages returns the overview, one page per package and the stylesheet.
// Every emitted document is linked from its package page, and every
// package page from the overview. Types are listed by name; only those
// whose document was emitted are links.
func (ix *Indexer) Pages(table *symbols.Table, docs []EmittedDocument) ([]Page, error) {
	filesByPkg := make(map[string][]EmittedDocument)
	emitted := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		filesByPkg[doc.Package] = append(filesByPkg[doc.Package], doc)
		emitted[doc.OutputPath] = struct{}{}
	}
	pkgSet := make(map[string]struct{})
	for _, pkg := range table.Packages() {
		pkgSet[pkg] = struct{}{}
	}
	for pkg := range filesByPkg {
		pkgSet[pkg] = struct{}{}
	}
	packages := make([]string, 0, len(pkgSet))
	for pkg := range pkgSet {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	overviewPath := filepath.Join(ix.opts.DestRoot, indexName)
	pages := make([]Page, 0, len(packages)+2)
	overview := overviewPageData{
		Title:      ix.title(""),
		DocTitle:   ix.opts.Page.DocTitle,
		Stylesheet: stylesheetName,
		Bottom:     template.HTML(ix.opts.Page.Bottom),
	}

	for _, pkg := range packages {
		indexPath := PackageIndexPath(ix.opts.DestRoot, pkg)
		page, err := ix.packagePage(pkg, indexPath, overviewPath, table.Package(pkg), filesByPkg[pkg], emitted)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)

		href, err := linkpath.RelativeFile(overviewPath, indexPath)
		if err != nil {
			return nil, fmt.Errorf("overview link to %s: %w", displayPackage(pkg), err)
		}
		overview.Packages = append(overview.Packages, indexLink{Name: displayPackage(pkg), Href: href})
	}

	content, err := ix.execute(overviewTemplate, overview)
	if err != nil {
		return nil, err
	}
	pages = append(pages,
		Page{Path: overviewPath, Content: content},
		Page{Path: filepath.Join(ix.opts.DestRoot, stylesheetName), Content: Stylesheet},
	)
	return pages, nil
}

func (ix *Indexer) packagePage(pkg, indexPath, overviewPath string, entries []symbols.TypeEntry, docs []EmittedDocument, emitted map[string]struct{}) (Page, error) {
	toRoot, err := linkpath.Relative(filepath.Dir(indexPath), ix.opts.DestRoot)
	if err != nil {
		return Page{}, fmt.Errorf("package %s: %w", displayPackage(pkg), err)
	}
	overviewHref, err := linkpath.RelativeFile(indexPath, overviewPath)
	if err != nil {
		return Page{}, fmt.Errorf("package %s: %w", displayPackage(pkg), err)
	}
	data := packagePageData{
		Title:      ix.title(displayPackage(pkg)),
		Package:    displayPackage(pkg),
		Stylesheet: toRoot + stylesheetName,
		Overview:   overviewHref,
		Bottom:     template.HTML(ix.opts.Page.Bottom),
	}
	for _, entry := range entries {
		link := indexLink{Name: entry.SimpleName, Kind: string(entry.Kind)}
		if _, ok := emitted[entry.OutputPath]; ok {
			href, err := linkpath.RelativeFile(indexPath, entry.OutputPath)
			if err != nil {
				return Page{}, fmt.Errorf("package %s type %s: %w", displayPackage(pkg), entry.SimpleName, err)
			}
			link.Href = href
		}
		data.Types = append(data.Types, link)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].OutputPath < docs[j].OutputPath })
	for _, doc := range docs {
		href, err := linkpath.RelativeFile(indexPath, doc.OutputPath)
		if err != nil {
			return Page{}, fmt.Errorf("package %s file %s: %w", displayPackage(pkg), doc.SourcePath, err)
		}
		data.Files = append(data.Files, indexLink{Name: filepath.Base(doc.SourcePath), Href: href})
	}

	content, err := ix.execute(packageTemplate, data)
	if err != nil {
		return Page{}, err
	}
	return Page{Path: indexPath, Content: content}, nil
}

func (ix *Indexer) execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		Charset string
		Data    any
	}{Charset: ix.opts.charset(), Data: data})
	if err != nil {
		return "", fmt.Errorf("render %s page: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (ix *Indexer) title(suffix string) string {
	base := ix.opts.Page.WindowTitle
	switch {
	case base == "":
		return suffix
	case suffix == "":
		return base
	default:
		return suffix + " - " + base
	}
}

func displayPackage(pkg string) string {
	if pkg == "" {
		return "(default package)"
	}
	return pkg
}
