package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls  []publishCall
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithDeferredConfirmWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishRoutesByTopic(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	pub := newWithChannel(ch, "", nil)

	err := pub.Publish(context.Background(), pipeline.Notification{Topic: "pdf-events", Key: "success", Value: "a.pdf"})
	require.NoError(t, err)

	require.Len(t, ch.calls, 1)
	call := ch.calls[0]
	require.Equal(t, "", call.exchange)
	require.Equal(t, "pdf-events", call.key)
	require.Equal(t, "a.pdf", string(call.msg.Body))
	require.Equal(t, "success", call.msg.Headers["key"])
	require.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
}

func TestPublishPropagatesChannelError(t *testing.T) {
	t.Parallel()

	pub := newWithChannel(&fakeChannel{err: amqp.ErrClosed}, "events", nil)
	err := pub.Publish(context.Background(), pipeline.Notification{Topic: "t", Key: "k", Value: "v"})
	require.True(t, errors.Is(err, amqp.ErrClosed))
}

func TestPublishRequiresTopic(t *testing.T) {
	t.Parallel()

	pub := newWithChannel(&fakeChannel{}, "", nil)
	require.Error(t, pub.Publish(context.Background(), pipeline.Notification{}))
}

func TestCloseClosesChannelOnce(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	pub := newWithChannel(ch, "", nil)
	require.NoError(t, pub.Close())
	require.True(t, ch.closed)
	require.NoError(t, pub.Close())
}

func TestNewRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	require.Error(t, err)
}
