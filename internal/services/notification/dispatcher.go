// Package notification delivers "transaction completed" messages to the
// external notifier. Delivery is asynchronous and retried independently of the
// transfer engine.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Joaovitor12j/simplified-platform/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 5 * time.Second
	queueSize      = 256
)

// Dispatcher queues notifications and delivers them from a background worker,
// retrying failed deliveries with increasing backoff.
type Dispatcher struct {
	url     string
	http    *http.Client
	logger  *logrus.Logger
	queue   chan *models.Transaction
	backoff []time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its delivery worker.
func NewDispatcher(url string, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		url:     url,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
		queue:   make(chan *models.Transaction, queueSize),
		backoff: []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second, 120 * time.Second},
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Dispatch enqueues a notification without blocking the caller. When the
// queue is full the notification is dropped and logged; the notifier is
// best-effort by contract.
func (d *Dispatcher) Dispatch(txn *models.Transaction) {
	select {
	case d.queue <- txn:
	default:
		d.logger.WithField("transaction_id", txn.ID).Warn("notification queue full, dropping notification")
	}
}

// Close stops accepting notifications and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for txn := range d.queue {
		d.deliver(txn)
	}
}

func (d *Dispatcher) deliver(txn *models.Transaction) {
	attempts := len(d.backoff) + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(d.backoff[attempt-1])
		}

		if err := d.send(txn); err != nil {
			d.logger.WithFields(logrus.Fields{
				"transaction_id": txn.ID,
				"attempt":        attempt + 1,
				"error":          err.Error(),
			}).Warn("notification delivery failed")
			continue
		}

		d.logger.WithField("transaction_id", txn.ID).Info("notification delivered")
		return
	}

	d.logger.WithField("transaction_id", txn.ID).Error("notification permanently failed")
}

func (d *Dispatcher) send(txn *models.Transaction) error {
	payload, err := json.Marshal(txn)
	if err != nil {
		return err
	}

	resp, err := d.http.Post(d.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
		return &deliveryError{status: resp.StatusCode}
	}
	return nil
}

type deliveryError struct {
	status int
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("notifier returned status %d", e.status)
}
