package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/muesli/termenv"
)

// TreeStyle colors a printed form tree. The zero value prints plain text.
type TreeStyle struct {
	out *termenv.Output
}

// NewTreeStyle styles output for w, degrading to plain text when w is not a color terminal.
func NewTreeStyle(w io.Writer) TreeStyle {
	return TreeStyle{out: termenv.NewOutput(w)}
}

func (s TreeStyle) paint(text, color string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Foreground(s.out.Color(color)).String()
}

// FormatTree renders descriptors as an indented outline, one node per line.
// errs marks questions with a server error, keyed by index.
func (s TreeStyle) FormatTree(tree []domain.Descriptor, errs map[string]string) string {
	var b strings.Builder
	s.formatNodes(&b, tree, errs, 0)
	return b.String()
}

func (s TreeStyle) formatNodes(b *strings.Builder, nodes []domain.Descriptor, errs map[string]string, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, d := range nodes {
		switch d.Type {
		case domain.NodeTypeQuestion:
			line := fmt.Sprintf("%s%s %s [%s]", indent, s.paint(d.Ix, "#94a3b8"), d.Caption, d.Datatype)
			if d.Required {
				line += s.paint(" *", "#f472b6")
			}
			if d.Answer != nil {
				line += " = " + s.paint(fmt.Sprint(d.Answer), "#34d399")
			}
			if msg := errs[d.Ix]; msg != "" {
				line += " " + s.paint("! "+msg, "#f87171")
			}
			b.WriteString(line + "\n")
		case domain.NodeTypeRepeat:
			fmt.Fprintf(b, "%s%s %s (%d)\n", indent, s.paint(d.Ix, "#94a3b8"), s.paint(orDefault(d.Caption, "repeat"), "#a78bfa"), len(d.Children))
			s.formatNodes(b, d.Children, errs, depth+1)
		default:
			fmt.Fprintf(b, "%s%s %s\n", indent, s.paint(d.Ix, "#94a3b8"), s.paint(orDefault(d.Caption, "group"), "#60a5fa"))
			s.formatNodes(b, d.Children, errs, depth+1)
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
