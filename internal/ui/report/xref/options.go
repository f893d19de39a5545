package xref

// PageOptions is the presentation shared by every page of a run. It is
// copied into the Emitter and Indexer at construction and never changed
// afterwards.
type PageOptions struct {
	WindowTitle string
	DocTitle    string
	Bottom      string
	Header      string
	Footer      string
	ShowHeader  bool
	ShowFooter  bool
	Revision    string
	Charset     string
}

// ExternalLinks configures links to an external documentation tree for
// types the local symbol table does not know.
type ExternalLinks struct {
	Enabled       bool
	BaseDirectory string
}

// Options configures an Emitter or Indexer.
type Options struct {
	DestRoot string
	Page     PageOptions
	External ExternalLinks
}

func (o Options) charset() string {
	if o.Page.Charset == "" {
		return "UTF-8"
	}
	return o.Page.Charset
}

const stylesheetName = "stylesheet.css"

// Stylesheet is written once to the destination root.
const Stylesheet = `body { font-family: sans-serif; margin: 0; padding: 0 1em; }
table.xref-source { border-collapse: collapse; font-family: monospace; font-size: 0.9em; }
table.xref-source td { padding: 0 0.5em; vertical-align: top; white-space: pre; }
td.xref-lineno { text-align: right; color: #888; border-right: 1px solid #ddd; user-select: none; }
td.xref-lineno a { color: inherit; text-decoration: none; }
tr:target { background: #fff6c8; }
.keyword { color: #7f0055; font-weight: bold; }
.string, .char { color: #2a00ff; }
.number { color: #116644; }
.comment { color: #3f7f5f; }
.javadoc { color: #3f5fbf; }
.other { color: #c00; }
a.xref { color: #0645ad; }
a.xref.external { font-style: italic; }
#overview { padding: 0.3em 0; }
.xref-revision { color: #888; font-size: 0.8em; }
ul.xref-index { list-style: none; padding-left: 0; }
`
