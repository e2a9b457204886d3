package diff

import "strings"

// Line is one reassembled output line: a 1-based sequential number plus the
// line's inner HTML, plain text interleaved with added/deleted spans in the
// order the fragments arrived.
type Line struct {
	Number int
	HTML   string
}

// span is one fragment of the line currently being assembled.
type span struct {
	kind Kind
	text string
}

// assembler rebuilds whole output lines from a fragment stream whose
// boundaries are unrelated to line boundaries. One assembler serves exactly
// one run; the pending buffer never outlives it.
type assembler struct {
	pending []span
	lines   []Line
}

// Reassemble converts an ordered operation stream into line records.
// Fragments without a newline accumulate in the pending buffer; every
// newline closes exactly one line, and the unterminated tail of the stream
// is emitted as the final line.
func Reassemble(ops []Operation) []Line {
	a := &assembler{}
	for _, op := range ops {
		a.push(op)
	}
	a.flush()
	return a.lines
}

func (a *assembler) push(op Operation) {
	if op.Text == "" {
		return
	}

	if !strings.Contains(op.Text, "\n") {
		// Bare partial: the whole fragment continues the open line.
		a.pending = append(a.pending, span{op.Kind, op.Text})
		return
	}

	parts := strings.Split(op.Text, "\n")
	whole, remaining := parts[:len(parts)-1], parts[len(parts)-1]

	for _, text := range whole {
		a.pending = append(a.pending, span{op.Kind, text})
		a.emit()
	}
	if remaining != "" {
		// Tail after the last newline opens the next line.
		a.pending = append(a.pending, span{op.Kind, remaining})
	}
}

// emit renders the pending buffer as the next line record and clears it.
func (a *assembler) emit() {
	var b strings.Builder
	for _, s := range a.pending {
		text := escapeWhitespace(s.text)
		if class := s.kind.class(); class != "" {
			b.WriteString(`<span class="`)
			b.WriteString(class)
			b.WriteString(`">`)
			b.WriteString(text)
			b.WriteString(`</span>`)
		} else {
			b.WriteString(text)
		}
	}

	a.lines = append(a.lines, Line{Number: len(a.lines) + 1, HTML: b.String()})
	a.pending = a.pending[:0]
}

// flush emits whatever is still pending as the final line. The last line of
// a document need not end in a newline.
func (a *assembler) flush() {
	if len(a.pending) > 0 {
		a.emit()
	}
}

var whitespaceEscaper = strings.NewReplacer(
	" ", "&nbsp;",
	"\t", "&nbsp;&nbsp;&nbsp;&nbsp;",
)

// escapeWhitespace protects indentation from HTML whitespace collapsing.
// Document content is HTML-escaped once before diffing, so only spaces and
// tabs need rewriting here.
func escapeWhitespace(s string) string {
	return whitespaceEscaper.Replace(s)
}
