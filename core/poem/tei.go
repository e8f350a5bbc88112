package poem

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/Rhymer/core/errors"
)

// TEI elements are matched by local name so that documents with and without
// the TEI default namespace both read.
var (
	teiPoemExpr = xpath.MustCompile(`//*[local-name()='lg'][@type='poem' or @type='sonnet']`)
	teiHeadExpr = xpath.MustCompile(`*[local-name()='head']`)
	teiLineExpr = xpath.MustCompile(`.//*[local-name()='l']`)
)

// ReadTEI reads poems from a TEI document. Each lg element of type "poem"
// or "sonnet" is a poem; its head is the title, the nearest author
// attribute names the author, nested l elements are the lines, and a rhyme
// attribute, when present, is taken as the gold scheme.
func ReadTEI(r io.Reader) ([]*Poem, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "TEI", Message: err.Error(), Err: err}
	}

	var poems []*Poem
	for _, lg := range xmlquery.QuerySelectorAll(doc, teiPoemExpr) {
		p := &Poem{
			ID:     lg.SelectAttr("xml:id"),
			Scheme: lg.SelectAttr("rhyme"),
		}
		if p.ID == "" {
			p.ID = lg.SelectAttr("id")
		}
		if head := xmlquery.QuerySelector(lg, teiHeadExpr); head != nil {
			p.Title = collapseSpace(head.InnerText())
		}
		p.Author = collapseSpace(nearestAttr(lg, "author"))
		for _, l := range xmlquery.QuerySelectorAll(lg, teiLineExpr) {
			if text := collapseSpace(l.InnerText()); text != "" {
				p.Lines = append(p.Lines, Line{Text: text})
			}
		}
		if len(p.Lines) == 0 {
			continue
		}
		p.normalize()
		poems = append(poems, p)
	}
	return poems, nil
}

// nearestAttr returns the attribute from n or its closest ancestor that has it.
func nearestAttr(n *xmlquery.Node, name string) string {
	for ; n != nil; n = n.Parent {
		if v := n.SelectAttr(name); v != "" {
			return v
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
