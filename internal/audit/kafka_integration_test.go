//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"moniftar/internal/platform/config"
	"moniftar/pkg/testutil/containers"
)

func TestKafkaSinkProducesJSON(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.KafkaConfig{Brokers: []string{rp.Broker}, AuditTopic: "moniftar.audit.test", ClientID: "audit-test"}
	sink, err := NewKafkaSink(cfg)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	pub := NewPublisher(sink)
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionVoucherRedeemed, Subject: "E0042", LocationID: "loc-1"}))
	pub.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)

	assert.Equal(t, "E0042", string(records[0].Key))
	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, ActionVoucherRedeemed, got.Action)
	assert.Equal(t, "loc-1", got.LocationID)
}
