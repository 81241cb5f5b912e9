package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/infrastructure/resilience"
)

// transientConnErrs are client-side conditions that a later publish
// attempt can recover from once the connection heals.
var transientConnErrs = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller gave up; neither retrying nor tripping the breaker helps.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case resilience.IsCircuitOpen(err), isTransientConnErr(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

func isTransientConnErr(err error) bool {
	for _, target := range transientConnErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// markTemporary tags retryable publish failures so upstream handlers can
// tell a flaky broker apart from a bad payload.
func markTemporary(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
