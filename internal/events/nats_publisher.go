// Package events fans accepted lifecycle transitions out to NATS and to
// connected WebSocket subscribers. Delivery is best-effort: a publish
// failure is logged and counted but never fails the transition.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"pharma-backend/internal/engine"
	"pharma-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectPrefix is the root of every published subject. The full subject is
// pharma.batch.<batch_type>.<event_code>, e.g. pharma.batch.medicine.MED_RECEIVED.
const SubjectPrefix = "pharma.batch"

// NATSPublisher publishes TransitionEvents to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// NewNATSPublisher connects to url and returns a publisher. Reconnects are
// unbounded; connection state is mirrored into the nats gauge.
func NewNATSPublisher(url string, logger *logrus.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conn, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.NATSConnectionStatus.Set(1)
	logger.WithField("url", url).Info("✅ NATS publisher connected")

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// PublishTransition implements engine.Publisher.
func (p *NATSPublisher) PublishTransition(evt engine.TransitionEvent) {
	eventType := string(evt.EventCode)

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.WithError(err).WithField("event_code", eventType).Warn("transition event marshal failed")
		metrics.NATSPublishFailed.WithLabelValues(eventType).Inc()
		return
	}

	subject := fmt.Sprintf("%s.%s.%s", SubjectPrefix, evt.BatchType, evt.EventCode)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"subject":  subject,
			"batch_id": evt.BatchID,
		}).Warn("NATS publish failed")
		metrics.NATSPublishFailed.WithLabelValues(eventType).Inc()
		return
	}

	metrics.NATSMessagesPublished.WithLabelValues(eventType).Inc()
	p.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"batch_id": evt.BatchID,
	}).Debug("transition event published")
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
	metrics.NATSConnectionStatus.Set(0)
}
