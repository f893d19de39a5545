package resolver

import "strings"

// ResolveChain resolves a dotted identifier chain such as a.b.C.method as
// written in source. The longest prefix naming a known type (or an
// explicitly imported external type) wins; otherwise the first identifier
// alone goes through the full lookup chain. The returned count is the
// number of leading parts the link covers, zero when nothing matched.
func (r *Resolver) ResolveChain(parts []string) (Link, int) {
	if len(parts) == 0 {
		return Unresolved(), 0
	}
	for n := len(parts); n >= 2; n-- {
		name := strings.Join(parts[:n], ".")
		if link, ok := r.lookupQualifiedName(name); ok {
			return link, n
		}
		if r.importsExternally(name) {
			return Link{External: name}, n
		}
	}
	link := r.Resolve(parts[0])
	if !link.Resolved && link.External == "" && !link.Ambiguous() {
		return link, 0
	}
	return link, 1
}

func (r *Resolver) importsExternally(qualified string) bool {
	for _, path := range r.single {
		if path == qualified {
			_, known := r.table.Lookup(qualified)
			return !known
		}
	}
	return false
}
