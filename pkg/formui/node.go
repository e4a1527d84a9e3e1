package formui

import (
	"github.com/aretw0/fullform/pkg/domain"
)

// Node is one element of the form tree: *Question, *Group or *Repeat.
type Node interface {
	Type() domain.NodeType
	Ix() string
	Caption() string
	// Children returns a copy of the child list. Questions have none.
	Children() []Node
	// Descriptor renders the node and its subtree back into the wire shape.
	Descriptor() domain.Descriptor

	descriptor() domain.Descriptor
	update(d domain.Descriptor) bool
	dispose()
}

// container is the shared part of groups and repeats.
type container struct {
	form     *Form
	ix       string
	caption  string
	markdown string
	children []Node
}

func (c *container) Ix() string {
	c.form.mu.RLock()
	defer c.form.mu.RUnlock()
	return c.ix
}

func (c *container) Caption() string {
	c.form.mu.RLock()
	defer c.form.mu.RUnlock()
	return c.caption
}

func (c *container) Children() []Node {
	c.form.mu.RLock()
	defer c.form.mu.RUnlock()
	out := make([]Node, len(c.children))
	copy(out, c.children)
	return out
}

func (c *container) updateHeader(d domain.Descriptor) bool {
	caption := c.form.sanitize(d.Caption)
	changed := c.ix != d.Ix || c.caption != caption || c.markdown != d.CaptionMarkdown
	c.ix = d.Ix
	c.caption = caption
	c.markdown = d.CaptionMarkdown
	return changed
}

func (c *container) dispose() {
	for _, child := range c.children {
		child.dispose()
	}
}

func (c *container) descriptors() []domain.Descriptor {
	if len(c.children) == 0 {
		return nil
	}
	out := make([]domain.Descriptor, len(c.children))
	for i, child := range c.children {
		out[i] = child.descriptor()
	}
	return out
}

// Group is an ordered block of nodes. Groups built under a repeat are repetitions.
type Group struct {
	container
	IsRepetition bool
	repeatable   bool
}

func (g *Group) Type() domain.NodeType { return domain.NodeTypeGroup }

func (g *Group) update(d domain.Descriptor) bool {
	changed := g.updateHeader(d)
	if g.repeatable != d.Repeatable {
		g.repeatable = d.Repeatable
		changed = true
	}
	return changed
}

// Descriptor implements Node.
func (g *Group) Descriptor() domain.Descriptor {
	g.form.mu.RLock()
	defer g.form.mu.RUnlock()
	return g.descriptor()
}

func (g *Group) descriptor() domain.Descriptor {
	return domain.Descriptor{
		Type:            domain.NodeTypeGroup,
		Ix:              g.ix,
		Caption:         g.caption,
		CaptionMarkdown: g.markdown,
		Repeatable:      g.repeatable,
		Children:        g.descriptors(),
	}
}

// HasAnyNestedQuestions reports whether a question exists anywhere below the group.
func (g *Group) HasAnyNestedQuestions() bool {
	g.form.mu.RLock()
	defer g.form.mu.RUnlock()
	return hasQuestion(g.children)
}

// Repeat holds one repetition group per repeated block.
type Repeat struct {
	container
}

func (r *Repeat) Type() domain.NodeType { return domain.NodeTypeRepeat }

func (r *Repeat) update(d domain.Descriptor) bool {
	return r.updateHeader(d)
}

// Descriptor implements Node.
func (r *Repeat) Descriptor() domain.Descriptor {
	r.form.mu.RLock()
	defer r.form.mu.RUnlock()
	return r.descriptor()
}

func (r *Repeat) descriptor() domain.Descriptor {
	return domain.Descriptor{
		Type:            domain.NodeTypeRepeat,
		Ix:              r.ix,
		Caption:         r.caption,
		CaptionMarkdown: r.markdown,
		Children:        r.descriptors(),
	}
}

// HasAnyNestedQuestions reports whether any repetition contains a question.
func (r *Repeat) HasAnyNestedQuestions() bool {
	r.form.mu.RLock()
	defer r.form.mu.RUnlock()
	return hasQuestion(r.children)
}

func hasQuestion(nodes []Node) bool {
	for _, n := range nodes {
		switch v := n.(type) {
		case *Question:
			return true
		case *Group:
			if hasQuestion(v.children) {
				return true
			}
		case *Repeat:
			if hasQuestion(v.children) {
				return true
			}
		}
	}
	return false
}

// childList returns the mutable child slice of a container node, or nil for questions.
func childList(n Node) *[]Node {
	switch v := n.(type) {
	case *Group:
		return &v.children
	case *Repeat:
		return &v.children
	}
	return nil
}
