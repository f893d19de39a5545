// Package linkpath computes relative links between output directories.
package linkpath

import (
	"errors"
	"path/filepath"
	"strings"

	coreerrors "xref/internal/core/errors"
)

// ErrNoCommonAncestor is returned when two paths live under different
// roots, for example different volumes.
var ErrNoCommonAncestor = errors.New("paths share no common ancestor")

// Relative returns the relative path leading from the directory from to
// the directory to, written with "/" and ending in "/" unless empty.
// Relative("/foo/bar/baz/oink", "/foo/bar/schmoo") is "../../schmoo/".
func Relative(from, to string) (string, error) {
	absFrom, err := filepath.Abs(from)
	if err != nil {
		return "", err
	}
	absTo, err := filepath.Abs(to)
	if err != nil {
		return "", err
	}
	rel, ok := walk(ancestors(absFrom), ancestors(absTo))
	if !ok {
		return "", &coreerrors.DomainError{
			Code:    coreerrors.CodeNoCommonAncestor,
			Message: "cannot compute relative link",
			Err:     ErrNoCommonAncestor,
			Context: map[string]interface{}{"from": from, "to": to},
		}
	}
	return rel, nil
}

// RelativeFile is Relative between the directory of fromFile and the
// directory of toFile, followed by toFile's base name.
func RelativeFile(fromFile, toFile string) (string, error) {
	dir, err := Relative(filepath.Dir(fromFile), filepath.Dir(toFile))
	if err != nil {
		return "", err
	}
	return dir + filepath.Base(toFile), nil
}

// ancestors lists p and every parent of p up to the filesystem root,
// nearest first. p must be absolute and clean.
func ancestors(p string) []string {
	chain := []string{p}
	for {
		parent := filepath.Dir(p)
		if parent == p {
			return chain
		}
		chain = append(chain, parent)
		p = parent
	}
}

// walk climbs fromChain until it meets a member of toChain, then descends
// toChain back down.
func walk(fromChain, toChain []string) (string, bool) {
	index := make(map[string]int, len(toChain))
	for i, dir := range toChain {
		index[dir] = i
	}
	for up, dir := range fromChain {
		down, ok := index[dir]
		if !ok {
			continue
		}
		var b strings.Builder
		b.WriteString(strings.Repeat("../", up))
		for i := down - 1; i >= 0; i-- {
			b.WriteString(filepath.Base(toChain[i]))
			b.WriteByte('/')
		}
		return b.String(), true
	}
	return "", false
}
