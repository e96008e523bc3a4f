// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
)

// connectionOptions returns the nats.go options shared by every ledgerview
// connection. role names the connection in logs and in the server's
// connection list.
func connectionOptions(role string, maxReconnects int, reconnectWait time.Duration, logger watermill.LoggerAdapter) []natsgo.Option {
	fields := watermill.LogFields{"role": role}
	return []natsgo.Option{
		natsgo.Name("ledgerview-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS connection lost", err, fields)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS connection restored", fields.Add(watermill.LogFields{"url": nc.ConnectedUrl()}))
		}),
	}
}

// consumerOptions builds the JetStream consumer options for cfg and
// reports whether watermill should provision the stream itself. A named
// stream is bound and never provisioned.
func consumerOptions(cfg *SubscriberConfig) ([]natsgo.SubOpt, bool) {
	// DeliverAll lets a fresh durable rebuild the read model from the
	// start of the stream.
	opts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverAll(),
		natsgo.AckExplicit(),
	}
	if cfg.StreamName == "" {
		return opts, true
	}
	return append(opts, natsgo.BindStream(cfg.StreamName)), false
}
