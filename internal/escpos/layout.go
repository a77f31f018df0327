package escpos

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// DefaultWidth is the logical line width in characters for 72-80mm paper.
const DefaultWidth = 42

// document accumulates one print job. Mode toggles are always emitted in
// on/off pairs inside a single helper so no section leaks a mode.
type document struct {
	buf   bytes.Buffer
	width int
}

func newDocument(width int) *document {
	if width <= 0 {
		width = DefaultWidth
	}
	d := &document{width: width}
	d.buf.Write(cmdInit)
	return d
}

func (d *document) raw(b []byte) { d.buf.Write(b) }

func (d *document) line(text string) {
	d.buf.WriteString(text)
	d.buf.WriteByte(lf)
}

func (d *document) feed(n int) {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
}

func (d *document) left(text string) {
	d.line(truncate(text, d.width))
}

func (d *document) center(text string) {
	d.raw(cmdAlignCenter)
	d.line(text)
	d.raw(cmdAlignLeft)
}

func (d *document) centerBold(text string) {
	d.raw(cmdAlignCenter)
	d.raw(cmdBoldOn)
	d.line(text)
	d.raw(cmdBoldOff)
	d.raw(cmdAlignLeft)
}

// banner prints text centered, bold and double size.
func (d *document) banner(text string) {
	d.raw(cmdAlignCenter)
	d.raw(cmdBoldOn)
	d.raw(cmdDoubleOn)
	d.line(text)
	d.raw(cmdDoubleOff)
	d.raw(cmdBoldOff)
	d.raw(cmdAlignLeft)
}

func (d *document) justify(left, right string) {
	d.line(justify(left, right, d.width))
}

func (d *document) justifyBold(left, right string) {
	d.raw(cmdBoldOn)
	d.justify(left, right)
	d.raw(cmdBoldOff)
}

func (d *document) separator(ch string) {
	d.line(strings.Repeat(ch, d.width))
}

// wrapped writes text word-wrapped to the line width, each line prefixed.
func (d *document) wrapped(prefix, text string) {
	for _, l := range wrap(text, d.width-utf8.RuneCountInString(prefix)) {
		d.line(prefix + l)
	}
}

// finish appends the two feed lines and the cut that end every job.
func (d *document) finish() []byte {
	d.feed(2)
	d.raw(cmdCut)
	return d.buf.Bytes()
}

// justify places right flush against the right margin. The right text is
// never truncated; the left text is cut to whatever room remains.
func justify(left, right string, width int) string {
	rightLen := utf8.RuneCountInString(right)
	if rightLen >= width {
		return right
	}
	room := width - rightLen - 1
	left = truncate(left, room)
	gap := width - utf8.RuneCountInString(left) - rightLen
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// wrap splits text into lines of at most width runes, breaking on spaces
// where possible and hard-splitting words longer than a line.
func wrap(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		current := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > width {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				runes := []rune(w)
				lines = append(lines, string(runes[:width]))
				w = string(runes[width:])
			}
			switch {
			case current == "":
				current = w
			case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(w) <= width:
				current += " " + w
			default:
				lines = append(lines, current)
				current = w
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
