package colorize

import (
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"

	"github.com/go-skink/skink/pkg/vm"
)

// Style describes the style of a chunk of text.
type Style uint8

const (
	NormalStyle Style = iota
	KeywordStyle
	StringStyle
	NumberStyle
	CommentStyle
	LineNoStyle
	ArrowStyle
	TabStyle
)

// Print prints to out a syntax highlighted version of the text read from
// reader, between lines startLine and endLine. Program listings (".ska"
// files) get their mnemonics, literals and comments highlighted; any other
// file is printed plain.
func Print(out io.Writer, path string, reader io.Reader, startLine, endLine, arrowLine int, colorEscapes map[Style]string, altTabStr string) error {
	buf, err := ioutil.ReadAll(reader)
	if err != nil {
		return err
	}

	w := &lineWriter{
		w:            out,
		lineRange:    [2]int{startLine, endLine},
		arrowLine:    arrowLine,
		colorEscapes: colorEscapes,
	}
	if len(altTabStr) > 0 {
		w.tabBytes = []byte(altTabStr)
	} else {
		w.tabBytes = []byte("\t")
	}

	if filepath.Ext(path) != ".ska" {
		w.Write(NormalStyle, buf, true)
		return nil
	}

	toks := scanListing(buf)

	flush := func(start, end int, style Style) {
		if start < end {
			w.Write(style, buf[start:end], end == len(buf))
		}
	}

	cur := 0
	for _, tok := range toks {
		flush(cur, tok.start, NormalStyle)
		flush(tok.start, tok.end, tok.style)
		cur = tok.end
	}
	if cur != len(buf) {
		flush(cur, len(buf), NormalStyle)
	}

	return nil
}

// keywords is the set of words highlighted in listings: every mnemonic the
// virtual machine defines plus the assembler's structural words.
var keywords = make(map[string]bool)

func init() {
	for _, kw := range []string{"fn", "locals", "cells", "frees"} {
		keywords[kw] = true
	}
	for op := vm.Opcode(0); op <= vm.OpcodeMax; op++ {
		keywords[op.String()] = true
	}
}

type colorTok struct {
	style      Style
	start, end int // start and end positions of the token
}

func isidentstart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isident(c byte) bool {
	return isidentstart(c) || (c >= '0' && c <= '9')
}

func isnum(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		// hex digits, also covers the exponent 'e'
		return true
	case c == 'x' || c == 'X' || c == '.':
		return true
	}
	return false
}

// scanListing tokenizes an assembly listing. The format is line oriented
// and has no nesting, so a single left to right pass recognizes comments,
// string literals, numbers and words.
func scanListing(buf []byte) []colorTok {
	toks := []colorTok{}
	for i := 0; i < len(buf); {
		c := buf[i]
		switch {
		case c == ';':
			end := i
			for end < len(buf) && buf[end] != '\n' {
				end++
			}
			toks = append(toks, colorTok{CommentStyle, i, end})
			i = end
		case c == '"':
			end := i + 1
			for end < len(buf) && buf[end] != '\n' {
				if buf[end] == '\\' && end+1 < len(buf) {
					end += 2
					continue
				}
				if buf[end] == '"' {
					end++
					break
				}
				end++
			}
			toks = append(toks, colorTok{StringStyle, i, end})
			i = end
		case c >= '0' && c <= '9':
			end := i + 1
			for end < len(buf) && isnum(buf[end]) {
				end++
			}
			toks = append(toks, colorTok{NumberStyle, i, end})
			i = end
		case isidentstart(c):
			end := i + 1
			for end < len(buf) && isident(buf[end]) {
				end++
			}
			if keywords[string(buf[i:end])] {
				toks = append(toks, colorTok{KeywordStyle, i, end})
			}
			i = end
		default:
			i++
		}
	}
	return toks
}

type lineWriter struct {
	w         io.Writer
	lineRange [2]int
	arrowLine int

	curStyle Style
	started  bool
	lineno   int

	colorEscapes map[Style]string

	tabBytes []byte
}

func (w *lineWriter) style(style Style) {
	if w.colorEscapes == nil {
		return
	}
	esc := w.colorEscapes[style]
	if esc == "" {
		esc = w.colorEscapes[NormalStyle]
	}
	fmt.Fprintf(w.w, "%s", esc)
}

func (w *lineWriter) inrange() bool {
	lno := w.lineno
	if !w.started {
		lno = w.lineno + 1
	}
	return lno >= w.lineRange[0] && lno < w.lineRange[1]
}

func (w *lineWriter) nl() {
	w.lineno++
	if !w.inrange() || !w.started {
		return
	}
	w.style(ArrowStyle)
	if w.lineno == w.arrowLine {
		fmt.Fprintf(w.w, "=>")
	} else {
		fmt.Fprintf(w.w, "  ")
	}
	w.style(LineNoStyle)
	fmt.Fprintf(w.w, "%4d:\t", w.lineno)
	w.style(w.curStyle)
}

func (w *lineWriter) writeInternal(style Style, data []byte) {
	if !w.inrange() {
		return
	}

	if !w.started {
		w.started = true
		w.curStyle = style
		w.nl()
	} else if w.curStyle != style {
		w.curStyle = style
		w.style(w.curStyle)
	}

	w.w.Write(data)
}

func (w *lineWriter) Write(style Style, data []byte, last bool) {
	cur := 0
	for i := range data {
		switch data[i] {
		case '\n':
			if last && i == len(data)-1 {
				w.writeInternal(style, data[cur:i])
				if w.curStyle != NormalStyle {
					w.style(NormalStyle)
				}
				if w.inrange() {
					w.w.Write([]byte{'\n'})
				}
				last = false
			} else {
				w.writeInternal(style, data[cur:i+1])
				w.nl()
			}
			cur = i + 1
		case '\t':
			w.writeInternal(style, data[cur:i])
			w.writeInternal(TabStyle, w.tabBytes)
			cur = i + 1
		}
	}
	if cur < len(data) {
		w.writeInternal(style, data[cur:])
	}
	if last {
		if w.curStyle != NormalStyle {
			w.style(NormalStyle)
		}
		if w.inrange() {
			w.w.Write([]byte{'\n'})
		}
	}
}
