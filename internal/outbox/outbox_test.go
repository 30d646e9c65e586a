package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"moniftar/internal/audit"
	"moniftar/internal/notify"
	"moniftar/internal/notify/mocks"
)

func TestFlushDispatchesAndClears(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sink := audit.NewMemorySink()
	pub := audit.NewPublisher(sink)

	var ob Outbox
	msg := notify.Message{To: "+33600000001", Body: notify.TextAddedToMain}
	ob.Notify(msg)
	ob.Record(audit.Event{Action: audit.ActionMemberAdded, Subject: "E0001"})

	sender.EXPECT().Notify(gomock.Any(), msg)
	ob.Flush(context.Background(), sender, pub, nil)

	require.Len(t, sink.Events(), 1)
	assert.Equal(t, audit.ActionMemberAdded, sink.Events()[0].Action)
	assert.Empty(t, ob.Messages())
	assert.Empty(t, ob.Events())
}

func TestFlushWithNothingQueuedSendsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)

	var ob Outbox
	ob.Flush(context.Background(), sender, nil, nil)
}
