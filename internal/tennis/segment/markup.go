package segment

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Element is an open markup element as seen by a Visitor.
type Element struct {
	Tag   string
	Attrs []html.Attribute
}

// HasClass reports whether the class attribute contains c as a whole word.
func (e Element) HasClass(c string) bool {
	if c == "" {
		return false
	}
	v, ok := e.Attr("class")
	if !ok {
		return false
	}
	for _, f := range strings.Fields(v) {
		if f == c {
			return true
		}
	}
	return false
}

// Attr returns the value of an attribute.
func (e Element) Attr(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Visitor receives scan events. Nil callbacks are skipped.
type Visitor struct {
	Start func(el Element)
	End   func(el Element)
	Text  func(text string)
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// Scan tokenizes markup and reports balanced Start/End pairs. An end tag closes
// the nearest open element with the same name and every element opened after it;
// stray end tags are ignored. Elements still open at end of input never receive End.
func Scan(markup string, v Visitor) error {
	z := html.NewTokenizer(strings.NewReader(markup))
	var stack []Element

	start := func(el Element) {
		if v.Start != nil {
			v.Start(el)
		}
	}
	end := func(el Element) {
		if v.End != nil {
			v.End(el)
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return z.Err()
		case html.StartTagToken:
			tok := z.Token()
			el := Element{Tag: tok.Data, Attrs: tok.Attr}
			start(el)
			if voidElements[el.Tag] {
				end(el)
				continue
			}
			stack = append(stack, el)
		case html.SelfClosingTagToken:
			tok := z.Token()
			el := Element{Tag: tok.Data, Attrs: tok.Attr}
			start(el)
			end(el)
		case html.EndTagToken:
			tok := z.Token()
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].Tag == tok.Data {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			for i := len(stack) - 1; i >= idx; i-- {
				end(stack[i])
			}
			stack = stack[:idx]
		case html.TextToken:
			if v.Text != nil {
				v.Text(string(z.Text()))
			}
		}
	}
}
