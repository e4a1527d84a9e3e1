package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/ports"
)

// Mask replaces answers and inputs hidden by the PII middleware.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks, before saving, the answers of questions whose caption or index
// matches one of the patterns, and sticky search inputs whose name matches. Loaded
// snapshots keep the mask, so a resumed session asks those questions again.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Copy so the caller's snapshot is never modified.
	cloned := *snap
	cloned.Payload.Tree = m.maskTree(snap.Payload.Tree)
	cloned.Context = snap.Context.Clone()
	for _, inputs := range cloned.Context.StickyQueryInputs {
		for k := range inputs {
			if m.matches(k) {
				inputs[k] = Mask
			}
		}
	}
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(s string) bool {
	for _, p := range m.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) maskTree(ds []domain.Descriptor) []domain.Descriptor {
	if ds == nil {
		return nil
	}
	out := make([]domain.Descriptor, len(ds))
	for i, d := range ds {
		if d.Type == domain.NodeTypeQuestion && d.Answer != nil && (m.matches(d.Caption) || m.matches(d.Ix)) {
			d.Answer = Mask
		}
		d.Children = m.maskTree(d.Children)
		out[i] = d
	}
	return out
}
