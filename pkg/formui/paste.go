package formui

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/fullform/pkg/domain"
)

// ClipboardType tags node descriptors copied out of a form.
const ClipboardType = "fullform:node"

type clipboard struct {
	Type     string             `json:"type"`
	Contents *domain.Descriptor `json:"contents"`
}

// CopyNode serializes the node at ix for the clipboard.
func (f *Form) CopyNode(ix string) (string, error) {
	n := f.Find(ix)
	if n == nil {
		return "", fmt.Errorf("copy %q: %w", ix, domain.ErrQuestionNotFound)
	}
	d := n.Descriptor()
	data, err := json.Marshal(clipboard{Type: ClipboardType, Contents: &d})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParsePastedNode extracts a descriptor from clipboard text. Anything that is not a
// copied node (plain text, foreign JSON, unknown node types) yields ok=false.
func ParsePastedNode(data string) (domain.Descriptor, bool) {
	var c clipboard
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return domain.Descriptor{}, false
	}
	if c.Type != ClipboardType || c.Contents == nil {
		return domain.Descriptor{}, false
	}
	if err := validateTree([]domain.Descriptor{*c.Contents}, false); err != nil {
		return domain.Descriptor{}, false
	}
	return *c.Contents, true
}

// Paste inserts a copied node at index in the root list (appending when index is out of
// range). Unrecognized clipboard contents are ignored and Paste reports false.
func (f *Form) Paste(data string, index int) bool {
	d, ok := ParsePastedNode(data)
	if !ok {
		return false
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false
	}
	n := f.build(d, false)
	if index < 0 || index >= len(f.children) {
		f.children = append(f.children, n)
	} else {
		f.children = append(f.children, nil)
		copy(f.children[index+1:], f.children[index:])
		f.children[index] = n
	}
	f.mu.Unlock()

	f.emitChange(domain.ChangeEvent{Ix: d.Ix, Kind: domain.ChangeAdded, NodeType: d.Type})
	return true
}
