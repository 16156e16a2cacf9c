package bibtex

import "strings"

// Options controls which fixes the rewriter applies. The zero value keeps
// nothing and removes every URL; use DefaultOptions for the stock behavior.
type Options struct {
	KeepAnnote     bool     // keep annote fields instead of deleting them
	KeepAbstract   bool     // keep abstract fields instead of deleting them
	ISSNAsYear     bool     // rename an orphan issn field to year
	KeepAllURLs    bool     // treat every entry type as a URL exception
	DropURLWithDOI bool     // even for exceptions, drop the URL when a DOI is present
	URLExceptions  []string // entry types whose URL survives removal
}

// DefaultOptions returns the stock configuration: annotations, abstracts
// and file paths are removed, every entry keeps its URL unless it also
// carries a DOI, and orphan ISSNs are left alone.
func DefaultOptions() Options {
	return Options{
		KeepAllURLs:    true,
		DropURLWithDOI: true,
		URLExceptions:  []string{"misc", "unpublished"},
	}
}

// URLException reports whether entries of the given type keep their URL.
// The match is exact and case-sensitive.
func (o Options) URLException(entryType string) bool {
	if o.KeepAllURLs {
		return true
	}
	for _, t := range o.URLExceptions {
		if t == entryType {
			return true
		}
	}
	return false
}

// Report counts the edits applied to an entry.
type Report struct {
	TitlesFixed      int `json:"titles_fixed"`
	MonthsFixed      int `json:"months_fixed"`
	EscapesFixed     int `json:"escapes_fixed"`
	URLsRemoved      int `json:"urls_removed"`
	FilesRemoved     int `json:"files_removed"`
	AnnotesRemoved   int `json:"annotes_removed"`
	AbstractsRemoved int `json:"abstracts_removed"`
	ISSNsRenamed     int `json:"issns_renamed"`
}

func (r *Report) merge(other Report) {
	r.TitlesFixed += other.TitlesFixed
	r.MonthsFixed += other.MonthsFixed
	r.EscapesFixed += other.EscapesFixed
	r.URLsRemoved += other.URLsRemoved
	r.FilesRemoved += other.FilesRemoved
	r.AnnotesRemoved += other.AnnotesRemoved
	r.AbstractsRemoved += other.AbstractsRemoved
	r.ISSNsRenamed += other.ISSNsRenamed
}

// Total returns the number of edits counted in the report.
func (r Report) Total() int {
	return r.TitlesFixed + r.MonthsFixed + r.EscapesFixed + r.URLsRemoved +
		r.FilesRemoved + r.AnnotesRemoved + r.AbstractsRemoved + r.ISSNsRenamed
}

// DocumentReport summarizes a whole-document fix.
type DocumentReport struct {
	Report
	Entries      int  `json:"entries"`
	Unterminated bool `json:"unterminated,omitempty"`
}

// FixDocument segments a document, fixes each entry, and concatenates the
// results in order. Text outside entries is not carried into the output.
func FixDocument(doc string, opts Options) (string, DocumentReport) {
	entries, unterminated := Segment(doc)

	var report DocumentReport
	report.Unterminated = unterminated != ""

	var b strings.Builder
	b.Grow(len(doc))
	for _, e := range entries {
		fixed, rep := FixEntry(e.Raw, opts)
		b.WriteString(fixed)
		report.Entries++
		report.Report.merge(rep)
	}
	return b.String(), report
}

// FixEntry applies the fix rules to one raw entry in a single pass. The
// input is never modified; the fixed entry is assembled into a new buffer
// by copying spans around the edited regions. Lines whose layout does not
// match a rule's expected shape are copied through unchanged, which makes
// the pass idempotent.
func FixEntry(raw string, opts Options) (string, Report) {
	var rep Report
	urlException := opts.URLException(EntryType(raw))

	var b strings.Builder
	b.Grow(len(raw))

	var hasYear, hasISSN, hasDOI bool
	issnAt := -1 // offset of "issn" in the output buffer

	i := 0
	for i < len(raw) {
		lineEnd := strings.IndexByte(raw[i:], '\n')
		if lineEnd < 0 {
			lineEnd = len(raw)
		} else {
			lineEnd += i
		}
		line := raw[i:lineEnd]

		switch {
		case strings.HasPrefix(line, "month ="):
			if fixed, ok := unbraceMonth(line); ok {
				line = fixed
				rep.MonthsFixed++
			}
			writeUnescaped(&b, line, &rep)

		case strings.HasPrefix(line, "title ="):
			if fixed, ok := undoubleTitle(line); ok {
				line = fixed
				rep.TitlesFixed++
			}
			writeUnescaped(&b, line, &rep)

		case !opts.KeepAnnote && strings.HasPrefix(line, "annote ="):
			if end, ok := fieldEnd(raw, i); ok {
				rep.AnnotesRemoved++
				i = end
				continue
			}
			writeUnescaped(&b, line, &rep)

		case !opts.KeepAbstract && strings.HasPrefix(line, "abstract ="):
			if end, ok := fieldEnd(raw, i); ok {
				rep.AbstractsRemoved++
				i = end
				continue
			}
			writeUnescaped(&b, line, &rep)

		case strings.HasPrefix(line, "doi ="):
			hasDOI = true
			writeUnescaped(&b, line, &rep)

		case strings.HasPrefix(line, "file ="):
			rep.FilesRemoved++
			i = lineEnd + 1
			continue

		case strings.HasPrefix(line, "url ="):
			// The export writes fields alphabetically, so any DOI was
			// already seen by the time the URL line comes up.
			if !urlException || (opts.DropURLWithDOI && hasDOI) {
				rep.URLsRemoved++
				i = lineEnd + 1
				continue
			}
			writeUnescaped(&b, line, &rep)

		case strings.HasPrefix(line, "year ="):
			hasYear = true
			writeUnescaped(&b, line, &rep)

		case strings.HasPrefix(line, "issn ="):
			hasISSN = true
			issnAt = b.Len()
			writeUnescaped(&b, line, &rep)

		default:
			writeUnescaped(&b, line, &rep)
		}

		if lineEnd < len(raw) {
			b.WriteByte('\n')
		}
		i = lineEnd + 1
	}

	out := b.String()
	if opts.ISSNAsYear && hasISSN && !hasYear {
		// Same length, so no offsets shift: the value stands in as a year.
		out = out[:issnAt] + "year" + out[issnAt+len("issn"):]
		rep.ISSNsRenamed++
	}
	return out, rep
}

// unbraceMonth strips the braces from a month value of exactly three
// characters: "month = {jan}," becomes "month = jan,". Any other layout
// is left alone.
func unbraceMonth(line string) (string, bool) {
	const prefix = "month = "
	if !strings.HasPrefix(line, prefix) {
		return line, false
	}
	val := line[len(prefix):]
	if len(val) < 5 || val[0] != '{' || val[4] != '}' {
		return line, false
	}
	return prefix + val[1:4] + val[5:], true
}

// undoubleTitle removes the extra brace pair around a double-braced title:
// "title = {{Foo}}," becomes "title = {Foo},". Titles that are already
// single-braced are left alone.
func undoubleTitle(line string) (string, bool) {
	const prefix = "title = "
	if !strings.HasPrefix(line, prefix) {
		return line, false
	}
	val := line[len(prefix):]
	if !strings.HasPrefix(val, "{{") {
		return line, false
	}
	switch {
	case strings.HasSuffix(val, "}},"):
		return prefix + "{" + val[2:len(val)-3] + "},", true
	case strings.HasSuffix(val, "}}"):
		return prefix + "{" + val[2:len(val)-2] + "}", true
	}
	return line, false
}

// fieldEnd locates the end of a multi-line field starting at the line
// offset start: the literal sequence "},\n" that terminates it. Returns
// the offset just past the terminator, or ok=false when the field never
// terminates (the field is then left unmodified by the caller).
func fieldEnd(raw string, start int) (int, bool) {
	idx := strings.Index(raw[start:], "},\n")
	if idx < 0 {
		return 0, false
	}
	return start + idx + len("},\n"), true
}

// writeUnescaped copies s into b, resolving the escaped brace sequences
// {\{} and {\}} the export writes when LaTeX escaping is enabled.
func writeUnescaped(b *strings.Builder, s string, rep *Report) {
	for len(s) > 0 {
		i := strings.Index(s, `{\`)
		if i < 0 {
			b.WriteString(s)
			return
		}
		b.WriteString(s[:i])
		s = s[i:]
		switch {
		case strings.HasPrefix(s, `{\{}`):
			b.WriteByte('{')
			s = s[4:]
			rep.EscapesFixed++
		case strings.HasPrefix(s, `{\}}`):
			b.WriteByte('}')
			s = s[4:]
			rep.EscapesFixed++
		default:
			b.WriteString(s[:2])
			s = s[2:]
		}
	}
}
