package observability

import (
	"log/slog"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
)

// LogHooks returns relay hooks that audit every event to logger.
// Steps and consumption are logged at debug, errors at warn.
func LogHooks(logger *slog.Logger) domain.RelayHooks {
	return domain.RelayHooks{
		OnPublish: func(s domain.Snapshot, waited time.Duration) {
			logger.Debug("step_published", "step", s.Step, "tokens", len(s.Tokens), "waited", waited)
		},
		OnTake: func(s domain.Snapshot) {
			logger.Debug("step_taken", "step", s.Step)
		},
		OnOutput: func(text string) {
			logger.Debug("output", "text", text)
		},
		OnError: func(msg string) {
			logger.Warn("producer_error", "message", msg)
		},
		OnInputRequest: func() {
			logger.Info("input_requested")
		},
		OnInputSupplied: func(text string) {
			logger.Debug("input_supplied", "bytes", len(text))
		},
		OnFinish: func() {
			logger.Info("relay_finished")
		},
	}
}
