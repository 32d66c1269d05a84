package email

import (
	"sync"

	"github.com/rs/zerolog"
)

// AsyncNotifier delivers notifications off the request path. Failures are logged only.
type AsyncNotifier struct {
	next   Notifier
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewAsyncNotifier wraps next
func NewAsyncNotifier(next Notifier, logger zerolog.Logger) *AsyncNotifier {
	return &AsyncNotifier{next: next, logger: logger}
}

// SendSubmissionReceipt queues a submission receipt
func (a *AsyncNotifier) SendSubmissionReceipt(msg StatusMessage) error {
	a.dispatch("submission_receipt", msg, a.next.SendSubmissionReceipt)
	return nil
}

// SendStatusChange queues a status change notice
func (a *AsyncNotifier) SendStatusChange(msg StatusMessage) error {
	a.dispatch("status_change", msg, a.next.SendStatusChange)
	return nil
}

func (a *AsyncNotifier) dispatch(kind string, msg StatusMessage, send func(StatusMessage) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := send(msg); err != nil {
			a.logger.Error().Err(err).
				Str("kind", kind).
				Int64("applicationID", msg.ApplicationID).
				Msg("Failed to deliver notification")
		}
	}()
}

// Wait blocks until every queued notification has been attempted
func (a *AsyncNotifier) Wait() {
	a.wg.Wait()
}
