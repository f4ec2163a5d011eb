package chat

import (
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// DeliveryFailure records one recipient that a broadcast pass could not
// reach. The failed recipient's own handler tears the session down when its
// read loop observes the broken transport; the broadcaster never mutates
// the registry.
type DeliveryFailure struct {
	Username string
	Err      error
}

// DeliveryReport summarizes one broadcast pass.
type DeliveryReport struct {
	Delivered []string
	Failed    []DeliveryFailure
}

// FailedUsernames lists the recipients that did not receive the frame.
func (r DeliveryReport) FailedUsernames() []string {
	return lo.Map(r.Failed, func(f DeliveryFailure, _ int) string { return f.Username })
}

// Broadcaster fans a message out to every registered session except the
// sender, sealing the payload per-recipient with that recipient's own key.
type Broadcaster struct {
	reg    *Registry
	logger *slog.Logger
}

// NewBroadcaster wires a broadcaster to the registry it snapshots.
func NewBroadcaster(reg *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{reg: reg, logger: logger}
}

// Deliver sends m to all sessions except excludeUsername. Delivery is
// best-effort and per-recipient isolated: one failed write is recorded and
// the pass continues to the remaining recipients.
func (b *Broadcaster) Deliver(m Message, excludeUsername string) DeliveryReport {
	start := time.Now()
	var report DeliveryReport

	for _, s := range b.reg.Snapshot() {
		if s.Username == excludeUsername {
			continue
		}
		if err := s.Send(m); err != nil {
			report.Failed = append(report.Failed, DeliveryFailure{Username: s.Username, Err: err})
			deliveryFailures.Inc()
			continue
		}
		report.Delivered = append(report.Delivered, s.Username)
	}

	messagesTotal.WithLabelValues(m.Kind.String()).Inc()
	broadcastDuration.Observe(time.Since(start).Seconds())

	if len(report.Failed) > 0 {
		b.logger.Warn("broadcast incomplete",
			"kind", m.Kind.String(),
			"sender", m.Sender,
			"failed", report.FailedUsernames(),
		)
	}
	return report
}
