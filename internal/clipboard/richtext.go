package clipboard

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractRichText returns the plain text carried by an RTF or HTML payload
func ExtractRichText(format RichFormat, data []byte) string {
	switch format {
	case FormatRTF:
		return rtfToText(data)
	case FormatHTML:
		return htmlToText(data)
	}
	return ""
}

// HTML

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true,
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) atLineStart() bool {
	s := w.b.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func (w *textWriter) newline() {
	if !w.atLineStart() {
		w.b.WriteByte('\n')
	}
}

// collapsed writes text with whitespace runs folded into single spaces
func (w *textWriter) collapsed(text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		if text != "" && !w.atLineStart() && !strings.HasSuffix(w.b.String(), " ") {
			w.b.WriteByte(' ')
		}
		return
	}
	if isSpace(text[0]) && !w.atLineStart() && !strings.HasSuffix(w.b.String(), " ") {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(strings.Join(fields, " "))
	if isSpace(text[len(text)-1]) {
		w.b.WriteByte(' ')
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func htmlToText(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	w := &textWriter{}
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				w.b.WriteString(n.Data)
			} else {
				w.collapsed(n.Data)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
				return
			case atom.Br:
				w.b.WriteByte('\n')
				return
			case atom.Pre:
				pre = true
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			w.newline()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Td || n.DataAtom == atom.Th) && n.NextSibling != nil {
			w.b.WriteByte('\t')
		}
		if block {
			w.newline()
		}
	}
	walk(doc, false)

	return tidyLines(w.b.String())
}

// tidyLines trims trailing blanks on every line, keeps at most one empty line
// in a row and drops leading and trailing empty lines
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// RTF

// Groups starting with one of these words carry no document text
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"generator": true, "themedata": true, "colorschememapping": true,
	"latentstyles": true, "datastore": true, "xmlnstbl": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "filetbl": true, "revtbl": true,
	"object": true, "fldinst": true, "expandedcolortbl": true, "mmathPr": true,
}

var rtfSymbols = map[string]string{
	"par": "\n", "line": "\n", "sect": "\n", "page": "\n", "row": "\n",
	"tab": "\t", "cell": "\t",
	"emdash": "—", "endash": "–", "bullet": "•",
	"lquote": "‘", "rquote": "’", "ldblquote": "“", "rdblquote": "”",
	"emspace": " ", "enspace": " ", "qmspace": " ",
}

// Windows-1252 characters in the 0x80-0x9f range
var cp1252 = map[byte]rune{
	0x80: '€', 0x82: '‚', 0x83: 'ƒ', 0x84: '„', 0x85: '…', 0x86: '†', 0x87: '‡',
	0x88: 'ˆ', 0x89: '‰', 0x8a: 'Š', 0x8b: '‹', 0x8c: 'Œ', 0x8e: 'Ž', 0x91: '‘',
	0x92: '’', 0x93: '“', 0x94: '”', 0x95: '•', 0x96: '–', 0x97: '—', 0x98: '˜',
	0x99: '™', 0x9a: 'š', 0x9b: '›', 0x9c: 'œ', 0x9e: 'ž', 0x9f: 'Ÿ',
}

type rtfState struct {
	skip bool // inside an ignorable destination
	uc   int  // fallback characters following \u
}

type rtfParser struct {
	out      strings.Builder
	cur      rtfState
	stack    []rtfState
	fallback int // characters still to drop after a \u
	groupPos int // position of the last '{', for destination detection
}

func (p *rtfParser) emit(s string) {
	if p.fallback > 0 {
		p.fallback--
		return
	}
	if p.cur.skip {
		return
	}
	p.out.WriteString(s)
}

func rtfToText(data []byte) string {
	p := &rtfParser{cur: rtfState{uc: 1}}

	for i := 0; i < len(data); {
		c := data[i]
		switch c {
		case '{':
			p.stack = append(p.stack, p.cur)
			p.fallback = 0
			p.groupPos = i
			i++
		case '}':
			if n := len(p.stack); n > 0 {
				p.cur = p.stack[n-1]
				p.stack = p.stack[:n-1]
			}
			p.fallback = 0
			i++
		case '\\':
			i = p.control(data, i+1)
		case '\r', '\n':
			i++
		default:
			p.emit(string(data[i : i+1]))
			i++
		}
	}
	return strings.TrimRight(p.out.String(), "\n")
}

// control handles the control word or symbol starting at data[i] and returns
// the index after it
func (p *rtfParser) control(data []byte, i int) int {
	if i >= len(data) {
		return i
	}
	c := data[i]
	switch {
	case c == '\\' || c == '{' || c == '}':
		p.emit(string(c))
		return i + 1
	case c == '~':
		p.emit(" ")
		return i + 1
	case c == '_':
		p.emit("-")
		return i + 1
	case c == '-':
		return i + 1
	case c == '*':
		p.cur.skip = true
		return i + 1
	case c == '\'':
		if i+2 < len(data) {
			if b, err := strconv.ParseUint(string(data[i+1:i+3]), 16, 8); err == nil {
				p.emit(decodeCP1252(byte(b)))
			}
		}
		return i + 3
	case c == '\n' || c == '\r':
		p.emit("\n")
		return i + 1
	case isLetter(c):
		return p.word(data, i)
	}
	return i + 1
}

func (p *rtfParser) word(data []byte, i int) int {
	start := i - 1 // the backslash
	j := i
	for j < len(data) && isLetter(data[j]) {
		j++
	}
	name := string(data[i:j])

	paramStart := j
	if j < len(data) && data[j] == '-' {
		j++
	}
	for j < len(data) && data[j] >= '0' && data[j] <= '9' {
		j++
	}
	param, hasParam := 0, false
	if j > paramStart {
		if n, err := strconv.Atoi(string(data[paramStart:j])); err == nil {
			param, hasParam = n, true
		}
	}
	if j < len(data) && data[j] == ' ' {
		j++
	}

	switch {
	case name == "u" && hasParam:
		if param < 0 {
			param += 65536
		}
		p.emit(string(rune(param)))
		p.fallback = p.cur.uc
	case name == "uc" && hasParam:
		p.cur.uc = param
	case rtfDestinations[name] && start == p.groupPos+1:
		p.cur.skip = true
	default:
		if s, ok := rtfSymbols[name]; ok {
			p.emit(s)
		}
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decodeCP1252(b byte) string {
	if r, ok := cp1252[b]; ok {
		return string(r)
	}
	return string(rune(b))
}
