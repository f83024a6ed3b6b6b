// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package bus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rayguard/rayguard/internal/logging"
	"github.com/rayguard/rayguard/internal/metrics"
)

// EntrySink receives the raw entry payloads the bridge consumes. The fan-out
// hub implements it.
type EntrySink interface {
	BroadcastRaw(data []byte)
}

// EntrySource is the subscribing side the bridge drains from.
type EntrySource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Bridge drains the entry topic into a sink. It is the consuming half of the
// bus pipeline: the publisher puts recorded entries on JetStream, the bridge
// hands them to the hub for live delivery.
type Bridge struct {
	subscriber EntrySource
	sink       EntrySink
}

// NewBridge wires a subscriber to a sink.
func NewBridge(subscriber EntrySource, sink EntrySink) *Bridge {
	return &Bridge{
		subscriber: subscriber,
		sink:       sink,
	}
}

// Serve consumes entry messages until context cancellation. Every message is
// acked: a payload the sink cannot parse will never parse on redelivery.
func (b *Bridge) Serve(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, TopicEntries)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicEntries, err)
	}

	logging.Info().Str("topic", TopicEntries).Msg("bus bridge consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.sink.BroadcastRaw(msg.Payload)
			metrics.RecordNATSConsume()
			msg.Ack()
		}
	}
}
