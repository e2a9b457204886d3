package beautify

import "strings"

// CSS reflows a stylesheet so every rule, declaration and brace sits on its
// own line with two-space indentation. String literals are left intact.
func CSS(content string) string {
	r := reflower{}
	for i := 0; i < len(content); i++ {
		ch := content[i]

		if r.quote != 0 {
			r.seg.WriteByte(ch)
			r.literal(ch)
			continue
		}

		switch ch {
		case '"', '\'':
			r.quote = ch
			r.seg.WriteByte(ch)
		case '{':
			r.open()
		case '}':
			r.close()
		case ';':
			r.flush(";")
		case '\n', '\r', '\t':
			r.seg.WriteByte(' ')
		default:
			r.seg.WriteByte(ch)
		}
	}
	r.flush("")
	return r.out.String()
}

// JS reflows a script so statements and braces start on their own lines.
// This is a light normalization pass, not a pretty-printer: its only job is
// to give the line differ stable boundaries, applied identically to both
// documents being compared.
func JS(content string) string {
	r := reflower{}
	for i := 0; i < len(content); i++ {
		ch := content[i]

		if r.quote != 0 {
			r.seg.WriteByte(ch)
			r.literal(ch)
			continue
		}

		// Line comments run to end of line; block comments stay inside
		// the current segment.
		if ch == '/' && i+1 < len(content) && content[i+1] == '/' {
			end := strings.IndexByte(content[i:], '\n')
			if end == -1 {
				end = len(content) - i
			}
			r.seg.WriteString(content[i : i+end])
			r.flush("")
			i += end
			continue
		}
		if ch == '/' && i+1 < len(content) && content[i+1] == '*' {
			stop := len(content)
			if end := strings.Index(content[i+2:], "*/"); end != -1 {
				stop = i + 2 + end + 2
			}
			r.seg.WriteString(content[i:stop])
			i = stop - 1
			continue
		}

		switch ch {
		case '"', '\'', '`':
			r.quote = ch
			r.seg.WriteByte(ch)
		case '{':
			r.open()
		case '}':
			r.close()
		case ';':
			r.flush(";")
		case '\n', '\r', '\t':
			r.seg.WriteByte(' ')
		default:
			r.seg.WriteByte(ch)
		}
	}
	r.flush("")
	return r.out.String()
}

// reflower accumulates one logical segment at a time and writes it out with
// depth-based indentation when a boundary character arrives.
type reflower struct {
	out     strings.Builder
	seg     strings.Builder
	depth   int
	quote   byte
	escaped bool
}

// literal advances the in-string state machine by one byte. A backslash
// escapes exactly the next byte, so an escaped backslash before a closing
// quote does not keep the string open.
func (r *reflower) literal(ch byte) {
	switch {
	case r.escaped:
		r.escaped = false
	case ch == '\\':
		r.escaped = true
	case ch == r.quote:
		r.quote = 0
	}
}

func (r *reflower) indent() string {
	return strings.Repeat("  ", r.depth)
}

func (r *reflower) flush(suffix string) {
	text := strings.TrimSpace(r.seg.String())
	r.seg.Reset()
	if text == "" && suffix == "" {
		return
	}
	r.out.WriteString(r.indent())
	r.out.WriteString(text)
	r.out.WriteString(suffix)
	r.out.WriteByte('\n')
}

func (r *reflower) open() {
	text := strings.TrimSpace(r.seg.String())
	r.seg.Reset()
	r.out.WriteString(r.indent())
	if text != "" {
		r.out.WriteString(text)
		r.out.WriteByte(' ')
	}
	r.out.WriteString("{\n")
	r.depth++
}

func (r *reflower) close() {
	r.flush("")
	if r.depth > 0 {
		r.depth--
	}
	r.out.WriteString(r.indent())
	r.out.WriteString("}\n")
}
