package formui

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/fullform/pkg/domain"
)

// ErrServerResponse is returned when the server answers a round-trip with status "error".
var ErrServerResponse = errors.New("server reported an error")

// Default messages for validation errors that arrive without a reason.
const (
	MsgConstraint = "Answer is not valid"
	MsgRequired   = "An answer is required"
	MsgValidation = "Answer could not be validated"
)

// FromJS applies a full payload: the tree is reconciled and the session metadata refreshed.
func (f *Form) FromJS(p domain.Payload) (domain.ReconcileStats, error) {
	stats, err := f.Reconcile(p.Tree)
	if err != nil {
		return stats, err
	}
	f.mu.Lock()
	if p.SeqID > f.seqID {
		f.seqID = p.SeqID
	}
	if p.Title != "" {
		f.title = p.Title
	}
	if len(p.Langs) > 0 {
		f.langs = append([]string(nil), p.Langs...)
	}
	f.mu.Unlock()
	return stats, nil
}

// Reconcile updates the tree in place to match tree.
//
// Positions are compared pairwise. A node whose type is unchanged is updated and keeps
// its identity; otherwise it is replaced. Extra old nodes are removed and extra new
// descriptors appended. Groups and repeats recurse into their children. The tree is left
// untouched when any descriptor is invalid.
func (f *Form) Reconcile(tree []domain.Descriptor) (domain.ReconcileStats, error) {
	if err := validateTree(tree, false); err != nil {
		return domain.ReconcileStats{}, err
	}

	start := time.Now()
	var events []domain.ChangeEvent

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ReconcileStats{}, domain.ErrSessionClosed
	}
	stats := f.reconcileChildren(&f.children, tree, false, &events)
	seq := f.seqID
	f.mu.Unlock()

	for _, evt := range events {
		f.emitChange(evt)
	}
	f.logger.Debug("tree reconciled",
		"updated", stats.Updated, "replaced", stats.Replaced,
		"added", stats.Added, "removed", stats.Removed)
	if f.hooks.OnReconcile != nil {
		f.hooks.OnReconcile(domain.ReconcileEvent{
			SessionID: f.sessionID,
			SeqID:     seq,
			Stats:     stats,
			Duration:  time.Since(start),
		})
	}
	return stats, nil
}

// reconcileChildren rewrites *list to match ds. Caller holds f.mu.
func (f *Form) reconcileChildren(list *[]Node, ds []domain.Descriptor, repetition bool, events *[]domain.ChangeEvent) domain.ReconcileStats {
	var stats domain.ReconcileStats
	old := *list
	next := make([]Node, len(ds))

	for i, d := range ds {
		if i < len(old) && old[i].Type() == d.Type {
			n := old[i]
			if n.update(d) {
				stats.Updated++
				*events = append(*events, domain.ChangeEvent{Ix: d.Ix, Kind: domain.ChangeUpdated, NodeType: d.Type})
			}
			if kids := childList(n); kids != nil {
				stats.Add(f.reconcileChildren(kids, d.Children, d.Type == domain.NodeTypeRepeat, events))
			}
			next[i] = n
			continue
		}

		next[i] = f.build(d, repetition)
		kind := domain.ChangeAdded
		if i < len(old) {
			old[i].dispose()
			kind = domain.ChangeReplaced
			stats.Replaced++
		} else {
			stats.Added++
		}
		*events = append(*events, domain.ChangeEvent{Ix: d.Ix, Kind: kind, NodeType: d.Type})
	}

	for i := len(ds); i < len(old); i++ {
		n := old[i]
		n.dispose()
		stats.Removed++
		*events = append(*events, domain.ChangeEvent{Ix: nodeIx(n), Kind: domain.ChangeRemoved, NodeType: n.Type()})
	}

	if len(next) == 0 {
		next = nil
	}
	*list = next
	return stats
}

func validateTree(ds []domain.Descriptor, underRepeat bool) error {
	for i, d := range ds {
		if !d.Type.Valid() {
			return fmt.Errorf("%w: %q at ix %q", domain.ErrUnknownNodeType, d.Type, d.Ix)
		}
		if underRepeat && d.Type != domain.NodeTypeGroup {
			return fmt.Errorf("%w: repeat child %d is %q, want %q", domain.ErrInvalidPayload, i, d.Type, domain.NodeTypeGroup)
		}
		if d.Type == domain.NodeTypeQuestion {
			continue
		}
		if err := validateTree(d.Children, d.Type == domain.NodeTypeRepeat); err != nil {
			return err
		}
	}
	return nil
}

// HandleResponse applies a server response to the form. ix names the question whose
// answer triggered the request; it may be empty for session-level actions.
//
// Responses with a sequence id older than the form's are ignored, as are responses that
// carry nothing the form understands.
func (f *Form) HandleResponse(resp *domain.Response, ix string) (domain.ReconcileStats, error) {
	var stats domain.ReconcileStats
	if resp == nil || !resp.Recognized() {
		f.logger.Debug("ignoring unrecognized response", "ix", ix)
		return stats, nil
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return stats, domain.ErrSessionClosed
	}
	if resp.SeqID != 0 && resp.SeqID < f.seqID {
		current := f.seqID
		f.mu.Unlock()
		f.logger.Debug("ignoring stale response", "seq_id", resp.SeqID, "current", current)
		return stats, nil
	}
	if resp.SeqID > f.seqID {
		f.seqID = resp.SeqID
	}
	f.mu.Unlock()

	switch resp.Status {
	case domain.StatusValidationError:
		q, err := f.Question(ix)
		if err != nil {
			return stats, fmt.Errorf("validation error for %q: %w", ix, err)
		}
		q.SetServerError(validationMessage(resp))
	case domain.StatusAccepted:
		if ix != "" {
			if q, err := f.Question(ix); err == nil {
				q.SetServerError("")
			}
		}
	case domain.StatusError:
		f.logger.Warn("server error", "ix", ix, "reason", resp.Reason)
		return stats, fmt.Errorf("%w: %s", ErrServerResponse, resp.Reason)
	}

	for qix, msg := range resp.Errors {
		q, err := f.Question(qix)
		if err != nil {
			f.logger.Debug("error for unknown question", "ix", qix)
			continue
		}
		q.SetServerError(msg)
	}

	if resp.HasTree {
		return f.Reconcile(resp.Tree)
	}
	return stats, nil
}

func validationMessage(resp *domain.Response) string {
	if resp.Reason != "" {
		return resp.Reason
	}
	switch resp.Type {
	case "constraint":
		return MsgConstraint
	case "required":
		return MsgRequired
	}
	return MsgValidation
}
