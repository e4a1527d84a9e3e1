package observability

import (
	"log/slog"

	"github.com/aretw0/fullform/pkg/domain"
)

// LoggingHooks logs answers and reconciliations at info level and node changes at debug.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnAnswer: func(e domain.AnswerEvent) {
			logger.Info("answer",
				"session_id", e.SessionID,
				"ix", e.Ix,
				"seq_id", e.SeqID,
			)
		},
		OnChange: func(e domain.ChangeEvent) {
			logger.Debug("node_change",
				"session_id", e.SessionID,
				"ix", e.Ix,
				"kind", e.Kind,
				"type", e.NodeType,
			)
		},
		OnReconcile: func(e domain.ReconcileEvent) {
			logger.Info("reconcile",
				"session_id", e.SessionID,
				"seq_id", e.SeqID,
				"updated", e.Stats.Updated,
				"replaced", e.Stats.Replaced,
				"added", e.Stats.Added,
				"removed", e.Stats.Removed,
				"duration", e.Duration,
			)
		},
	}
}
