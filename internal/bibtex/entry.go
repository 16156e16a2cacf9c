// Package bibtex segments and rewrites Mendeley Desktop .bib exports.
//
// This is not a BibTeX parser. It relies on the fixed line layout that
// Mendeley produces: one field per line (annotations and abstracts may
// spill over several lines), fields terminated by "},\n", and a closing
// brace alone at the start of the entry's last line.
package bibtex

import "strings"

// Entry is one bibliography record as a raw substring of the document.
type Entry struct {
	Type string // entry type tag, e.g. "article" or "misc"
	Raw  string // exact bytes from '@' through the entry's end
}

// Segment splits a document into entry substrings in document order.
// Each entry runs from its '@' marker through the closing brace that sits
// at the start of its own line, plus the following newline when present.
// If a final '@' never reaches a well-formed end marker, that partial
// entry is returned as unterminated rather than silently dropped.
func Segment(doc string) (entries []Entry, unterminated string) {
	pos := 0
	for {
		start := strings.IndexByte(doc[pos:], '@')
		if start < 0 {
			return entries, ""
		}
		start += pos

		end := findEntryEnd(doc, start+1)
		if end < 0 {
			return entries, doc[start:]
		}

		// Include the newline after the closing brace when there is one.
		stop := end + 1
		if stop < len(doc) {
			stop++
		}
		raw := doc[start:stop]
		entries = append(entries, Entry{Type: EntryType(raw), Raw: raw})
		pos = end + 1
	}
}

// findEntryEnd returns the index of the closing '}' of the entry starting
// before from, or -1 if no end marker exists. The marker is a '}' directly
// preceded by a newline and followed by a newline or end of document;
// braces inside annotation or abstract text never sit at start of line in
// Mendeley's output, so this anchor cannot fire inside a field.
func findEntryEnd(doc string, from int) int {
	for i := from; i < len(doc); i++ {
		if doc[i] != '}' {
			continue
		}
		if i > 0 && doc[i-1] != '\n' {
			continue
		}
		if i+1 == len(doc) || doc[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// EntryType returns the type tag of a raw entry: the characters between
// the leading '@' and the first '{'. The capture is unbounded; a tag is
// as long as the export wrote it.
func EntryType(raw string) string {
	if len(raw) == 0 || raw[0] != '@' {
		return ""
	}
	rest := raw[1:]
	if i := strings.IndexByte(rest, '{'); i >= 0 {
		return rest[:i]
	}
	// Degenerate entry with no body; take the tag up to the first line end.
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// EntryKey returns the citation key of a raw entry: the characters between
// the first '{' and the following comma or line end.
func EntryKey(raw string) string {
	open := strings.IndexByte(raw, '{')
	if open < 0 {
		return ""
	}
	rest := raw[open+1:]
	if i := strings.IndexAny(rest, ",\n"); i >= 0 {
		return rest[:i]
	}
	return rest
}

// FieldValue returns the value of the named field's first line, without the
// surrounding braces and trailing comma. Matching is anchored at the start
// of a line inside the entry ("name =" or "name ="-with-spaces is not
// accepted; Mendeley writes exactly "name = "). Returns "" when the field
// is absent or its line does not carry a braced value.
func FieldValue(raw, name string) string {
	line := fieldLine(raw, name)
	if line == "" {
		return ""
	}
	val := strings.TrimPrefix(line, name+" = ")
	val = strings.TrimSuffix(val, ",")
	if strings.HasPrefix(val, "{") && strings.HasSuffix(val, "}") {
		return val[1 : len(val)-1]
	}
	return val
}

// fieldLine returns the first line of the named field, without its newline.
func fieldLine(raw, name string) string {
	prefix := name + " ="
	pos := 0
	for pos < len(raw) {
		end := strings.IndexByte(raw[pos:], '\n')
		if end < 0 {
			end = len(raw)
		} else {
			end += pos
		}
		line := raw[pos:end]
		if strings.HasPrefix(line, prefix) {
			return line
		}
		pos = end + 1
	}
	return ""
}

// FilePaths parses the paths out of a Mendeley file field, which has the
// shape {:path:type;:path:type}. Backslash escapes written for LaTeX
// ($\backslash$) are folded back to path separators.
func FilePaths(raw string) []string {
	val := FieldValue(raw, "file")
	if val == "" {
		return nil
	}

	var paths []string
	for _, part := range strings.Split(val, ";") {
		part = strings.TrimPrefix(part, ":")
		// Strip the trailing ":type" qualifier.
		if i := strings.LastIndexByte(part, ':'); i >= 0 {
			part = part[:i]
		}
		part = strings.ReplaceAll(part, `$\backslash$`, `\`)
		part = strings.ReplaceAll(part, `\:`, ":")
		if part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}
