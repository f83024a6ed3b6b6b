// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package bus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
	"github.com/rayguard/rayguard/internal/models"
)

// Publisher publishes recorded ledger entries to JetStream. It satisfies
// the ledger append path's broadcaster so entries flow through the bus
// instead of straight into the hub.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	logger    watermill.LoggerAdapter
}

// NewPublisher connects to NATS and prepares a JetStream publisher. The
// stream must already exist; publishing never auto-provisions.
func NewPublisher(cfg *PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Publisher disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Publisher reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "bus-publisher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Publisher{
		publisher: pub,
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Publish sends one recorded entry to the entry topic. The message id
// doubles as the JetStream deduplication id.
func (p *Publisher) Publish(entry models.LedgerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(TopicEntries, msg)
	})
	if err != nil {
		return fmt.Errorf("publish entry: %w", err)
	}

	metrics.RecordNATSPublish()
	return nil
}

// BroadcastEntry queues a recorded entry onto the bus. Publish failures are
// logged but never surfaced; the entry is already durable in the ledger.
func (p *Publisher) BroadcastEntry(entry models.LedgerEntry) {
	if err := p.Publish(entry); err != nil {
		logging.Warn().
			Err(err).
			Str("ledger", entry.LedgerID).
			Uint64("seq", entry.Seq).
			Msg("failed to publish entry to bus")
	}
}

// Close shuts down the underlying connection.
func (p *Publisher) Close() error {
	return p.publisher.Close()
}
