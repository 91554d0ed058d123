// Package envfile parses and serializes the persisted KEY=value store
// format. Lines the parser does not understand as assignments (comments,
// blanks) pass through untouched, and an unmodified document serializes
// back to the exact bytes it was parsed from.
package envfile

import (
	"fmt"
	"regexp"
	"strings"

	"genv.tools/cli/internal/core/enverr"
)

type lineKind int

const (
	linePassthrough lineKind = iota
	linePair
)

// line is a single physical line of the document. raw holds the original
// text (without terminator) and is reused verbatim until the line is
// rewritten by a mutation.
type line struct {
	kind  lineKind
	key   string
	value string
	raw   string
}

// Document is the in-memory form of a persisted store file. Entry order
// matches file order.
type Document struct {
	lines []line
	// finalNewline records whether the source ended with a newline so the
	// round-trip stays byte-identical.
	finalNewline bool
}

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New returns an empty document.
func New() *Document {
	return &Document{finalNewline: true}
}

// Parse reads the store format. path is used only for error reporting;
// a malformed line fails the whole parse with its line number.
func Parse(data []byte, path string) (*Document, error) {
	doc := &Document{}
	if len(data) == 0 {
		doc.finalNewline = true
		return doc, nil
	}

	text := string(data)
	doc.finalNewline = strings.HasSuffix(text, "\n")
	if doc.finalNewline {
		text = strings.TrimSuffix(text, "\n")
	}

	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			doc.lines = append(doc.lines, line{kind: linePassthrough, raw: raw})
			continue
		}

		eq := strings.Index(raw, "=")
		if eq < 0 {
			return nil, enverr.Parse(path, i+1, fmt.Errorf("not a KEY=value assignment: %q", trimmed))
		}
		key := strings.TrimSpace(raw[:eq])
		if !keyPattern.MatchString(key) {
			return nil, enverr.Parse(path, i+1, fmt.Errorf("invalid key %q", key))
		}
		value, err := unquote(strings.TrimSpace(raw[eq+1:]))
		if err != nil {
			return nil, enverr.Parse(path, i+1, err)
		}
		doc.lines = append(doc.lines, line{kind: linePair, key: key, value: value, raw: raw})
	}
	return doc, nil
}

// Serialize renders the document. Untouched lines reproduce their original
// bytes; rewritten and appended lines render as KEY=value, quoting values
// that need it.
func (d *Document) Serialize() []byte {
	if len(d.lines) == 0 {
		return []byte{}
	}
	parts := make([]string, len(d.lines))
	for i, ln := range d.lines {
		parts[i] = ln.raw
	}
	out := strings.Join(parts, "\n")
	if d.finalNewline {
		out += "\n"
	}
	return []byte(out)
}

// Get returns the value of key. With duplicate assignments the last one
// wins, matching shell source semantics.
func (d *Document) Get(key string) (string, bool) {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].kind == linePair && d.lines[i].key == key {
			return d.lines[i].value, true
		}
	}
	return "", false
}

// Has reports whether key is assigned anywhere in the document.
func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set updates the winning assignment of key in place, or appends a new
// assignment at the end of the document.
func (d *Document) Set(key, value string) {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].kind == linePair && d.lines[i].key == key {
			d.lines[i].value = value
			d.lines[i].raw = render(key, value)
			return
		}
	}
	d.lines = append(d.lines, line{kind: linePair, key: key, value: value, raw: render(key, value)})
	d.finalNewline = true
}

// Unset removes every assignment of key. Removing an absent key is a no-op.
func (d *Document) Unset(key string) {
	kept := d.lines[:0]
	for _, ln := range d.lines {
		if ln.kind == linePair && ln.key == key {
			continue
		}
		kept = append(kept, ln)
	}
	d.lines = kept
}

// Pairs returns the winning (key, value) assignments in file order.
func (d *Document) Pairs() map[string]string {
	out := make(map[string]string)
	for _, ln := range d.lines {
		if ln.kind == linePair {
			out[ln.key] = ln.value
		}
	}
	return out
}

// Keys returns the assigned keys in file order, winners only.
func (d *Document) Keys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ln := range d.lines {
		if ln.kind == linePair && !seen[ln.key] {
			seen[ln.key] = true
			out = append(out, ln.key)
		}
	}
	return out
}

// Clone returns an independent copy. Mutation batches work on a clone so
// a rejected batch leaves the original untouched.
func (d *Document) Clone() *Document {
	c := &Document{finalNewline: d.finalNewline}
	c.lines = make([]line, len(d.lines))
	copy(c.lines, d.lines)
	return c
}

// Len returns the number of physical lines.
func (d *Document) Len() int { return len(d.lines) }

func render(key, value string) string {
	if needsQuoting(value) {
		return key + "=" + "\"" + escape(value) + "\""
	}
	return key + "=" + value
}

func needsQuoting(value string) bool {
	return strings.ContainsAny(value, " \t\"'#\n\r")
}

func escape(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unquote(value string) (string, error) {
	if len(value) < 2 {
		return value, nil
	}
	switch value[0] {
	case '"':
		if value[len(value)-1] != '"' {
			return "", fmt.Errorf("unterminated quoted value %q", value)
		}
		inner := value[1 : len(value)-1]
		var b strings.Builder
		escaped := false
		for _, r := range inner {
			if escaped {
				switch r {
				case 'n':
					b.WriteRune('\n')
				case 'r':
					b.WriteRune('\r')
				default:
					b.WriteRune(r)
				}
				escaped = false
				continue
			}
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
		}
		if escaped {
			return "", fmt.Errorf("trailing escape in quoted value %q", value)
		}
		return b.String(), nil
	case '\'':
		if value[len(value)-1] != '\'' {
			return "", fmt.Errorf("unterminated quoted value %q", value)
		}
		return value[1 : len(value)-1], nil
	}
	return value, nil
}
