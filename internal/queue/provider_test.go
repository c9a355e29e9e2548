package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/wireq/internal/pkg/emitter"
	"github.com/shandysiswandi/wireq/internal/pkg/socket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	role socket.Role

	blockBind chan struct{}
	bindErr   error
	sendErr   error
	closeErr  error
	msgs      chan socket.Frame

	mu       sync.Mutex
	bindAddr string
	binds    int
	connects []string
	topics   []string
	sent     []socket.Frame
	closes   int
}

func newFakeSocket(role socket.Role) *fakeSocket {
	return &fakeSocket{role: role, msgs: make(chan socket.Frame, 16)}
}

func (s *fakeSocket) Bind(addr string) error {
	if s.blockBind != nil {
		<-s.blockBind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.binds++
	s.bindAddr = addr
	return s.bindErr
}

func (s *fakeSocket) Connect(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects = append(s.connects, addr)
	return nil
}

func (s *fakeSocket) Subscribe(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	return nil
}

func (s *fakeSocket) Send(frame socket.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, frame)
	return nil
}

func (s *fakeSocket) Messages() <-chan socket.Frame {
	return s.msgs
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

func (s *fakeSocket) sentFrames() []socket.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]socket.Frame{}, s.sent...)
}

func (s *fakeSocket) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeFactory struct {
	pub *fakeSocket
	sub *fakeSocket
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		pub: newFakeSocket(socket.RolePub),
		sub: newFakeSocket(socket.RoleSub),
	}
}

func (f *fakeFactory) Create(role socket.Role) (socket.Socket, error) {
	if role == socket.RolePub {
		return f.pub, nil
	}
	return f.sub, nil
}

func testOptions() *Options {
	return &Options{QueueName: "queue", Hostname: "test", Port: 1234}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestNewValidation(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	tests := []struct {
		name    string
		sink    Emitter
		opts    *Options
		factory socket.Factory
		want    error
		field   string
	}{
		{
			name:    "missing emitter",
			opts:    testOptions(),
			factory: factory,
			want:    ErrMissingEmitter,
		},
		{
			name:    "missing options",
			sink:    sink,
			factory: factory,
			want:    ErrMissingOptions,
		},
		{
			name:    "missing queue name",
			sink:    sink,
			opts:    &Options{},
			factory: factory,
			field:   "queueName",
		},
		{
			name:    "missing hostname",
			sink:    sink,
			opts:    &Options{QueueName: "queue"},
			factory: factory,
			field:   "hostname",
		},
		{
			name:    "missing port",
			sink:    sink,
			opts:    &Options{QueueName: "queue", Hostname: "test"},
			factory: factory,
			field:   "port",
		},
		{
			name: "missing factory",
			sink: sink,
			opts: testOptions(),
			want: ErrMissingFactory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := New(tt.sink, tt.opts, tt.factory)
			require.Error(t, err)
			assert.Nil(t, provider)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestNewDoesNotTouchTheNetwork(t *testing.T) {
	factory := newFakeFactory()

	provider, err := New(emitter.New(), testOptions(), factory)
	require.NoError(t, err)
	require.NotNil(t, provider)

	assert.False(t, provider.Ready())
	assert.Zero(t, factory.pub.binds)
}

func TestStartBindSuccess(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 4)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)

	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	assert.True(t, provider.Ready())
	assert.Equal(t, "tcp://test:1234", factory.pub.bindAddr)

	// Start is one-shot; a second call must not bind again.
	provider.Start(context.Background())
	require.NoError(t, provider.Close())
	assert.Equal(t, 1, factory.pub.binds)

	select {
	case <-readyCh:
		t.Fatal("ready event fired more than once")
	default:
	}
}

func TestStartBindFailure(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()
	bindErr := errors.New("address in use")
	factory.pub.bindErr = bindErr

	errCh := make(chan any, 4)
	sink.On(EventError, func(payload any) { errCh <- payload })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)

	provider.Start(context.Background())

	select {
	case payload := <-errCh:
		assert.Equal(t, bindErr, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error event")
	}

	assert.False(t, provider.Ready())
	select {
	case <-errCh:
		t.Fatal("error event fired more than once")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishBeforeReadyDrainsInOrder(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()
	factory.pub.blockBind = make(chan struct{})

	drained := make(chan struct{})
	sink.On(EventReady, func(any) {
		// A publish issued inside a ready handler must still land after
		// every message queued before readiness.
		close(drained)
	})

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())

	provider.Publish("first")
	provider.Publish("second")
	assert.Empty(t, factory.pub.sentFrames())

	close(factory.pub.blockBind)
	waitSignal(t, drained, "ready event")

	require.Eventually(t, func() bool {
		return len(factory.pub.sentFrames()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	provider.Publish("third")

	frames := factory.pub.sentFrames()
	require.Len(t, frames, 3)
	assert.Equal(t, "first", string(frames[0].Payload))
	assert.Equal(t, "second", string(frames[1].Payload))
	assert.Equal(t, "third", string(frames[2].Payload))
	for _, frame := range frames {
		assert.Equal(t, "queue", frame.Topic)
	}
}

func TestPublishInsideReadyHandlerOrdersAfterQueue(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()
	factory.pub.blockBind = make(chan struct{})

	var provider *Provider
	done := make(chan struct{})
	sink.On(EventReady, func(any) {
		provider.Publish("from-handler")
		close(done)
	})

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())

	provider.Publish("queued")
	close(factory.pub.blockBind)
	waitSignal(t, done, "ready handler")

	require.Eventually(t, func() bool {
		return len(factory.pub.sentFrames()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	frames := factory.pub.sentFrames()
	assert.Equal(t, "queued", string(frames[0].Payload))
	assert.Equal(t, "from-handler", string(frames[1].Payload))
}

func TestPublishTextFrame(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	provider.Publish("test message")

	frames := factory.pub.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, "queue", frames[0].Topic)
	assert.Equal(t, "test message", string(frames[0].Payload))
}

func TestPublishBufferEncodesBase64(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	provider.Publish(buf)

	frames := factory.pub.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(buf), string(frames[0].Payload))
}

func TestPublishObjectEncodesJSON(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	value := map[string]string{"test": "obj", "foo": "bar"}
	provider.Publish(value)

	want, err := json.Marshal(value)
	require.NoError(t, err)

	frames := factory.pub.sentFrames()
	require.Len(t, frames, 1)
	assert.JSONEq(t, string(want), string(frames[0].Payload))
}

func TestPublishEncodeFailureEmitsError(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	errCh := make(chan any, 1)
	sink.On(EventError, func(payload any) { errCh <- payload })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)

	provider.Publish(make(chan int))

	select {
	case payload := <-errCh:
		encErr, ok := payload.(error)
		require.True(t, ok)
		assert.ErrorContains(t, encErr, "encode payload")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error event")
	}
	assert.Empty(t, factory.pub.sentFrames())
}

func TestPublishSendFailureEmitsError(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	errCh := make(chan any, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })
	sink.On(EventError, func(payload any) { errCh <- payload })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	sendErr := errors.New("socket gone")
	factory.pub.sendErr = sendErr
	provider.Publish("doomed")

	select {
	case payload := <-errCh:
		assert.Equal(t, sendErr, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error event")
	}

	// A send failure must not poison later publishes.
	factory.pub.sendErr = nil
	provider.Publish("recovered")
	frames := factory.pub.sentFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, "recovered", string(frames[0].Payload))
}

func TestSubscribeDeferredUntilReady(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()
	factory.pub.blockBind = make(chan struct{})

	readyCh := make(chan struct{}, 1)
	msgCh := make(chan Message, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })
	sink.On(EventMessage, func(payload any) {
		if msg, ok := payload.(Message); ok {
			msgCh <- msg
		}
	})

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())

	provider.Subscribe()
	assert.Empty(t, factory.sub.connects)

	close(factory.pub.blockBind)
	waitSignal(t, readyCh, "ready event")

	require.Eventually(t, func() bool {
		factory.sub.mu.Lock()
		defer factory.sub.mu.Unlock()
		return len(factory.sub.connects) == 1 && len(factory.sub.topics) == 1
	}, 2*time.Second, 10*time.Millisecond)

	factory.sub.mu.Lock()
	assert.Equal(t, "tcp://test:1234", factory.sub.connects[0])
	assert.Equal(t, "queue", factory.sub.topics[0])
	factory.sub.mu.Unlock()

	factory.sub.msgs <- socket.Frame{Topic: "queue", Payload: []byte("inbound")}

	select {
	case msg := <-msgCh:
		assert.Equal(t, "inbound", msg.Text())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message event")
	}
}

func TestSubscribeBufferRoundTrip(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	msgCh := make(chan Message, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })
	sink.On(EventMessage, func(payload any) {
		if msg, ok := payload.(Message); ok {
			msgCh <- msg
		}
	})

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	provider.Subscribe()

	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	payload, err := encodePayload(buf)
	require.NoError(t, err)
	factory.sub.msgs <- socket.Frame{Topic: "queue", Payload: payload}

	select {
	case msg := <-msgCh:
		got, err := msg.Bytes()
		require.NoError(t, err)
		assert.Equal(t, buf, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message event")
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")
	provider.Subscribe()

	provider.Unsubscribe()
	provider.Unsubscribe()
	provider.Unsubscribe()

	assert.Equal(t, 1, factory.sub.closeCount())
	assert.True(t, provider.Closed())
}

func TestOperationsAfterUnsubscribeAreNoops(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")

	provider.Unsubscribe()

	provider.Publish("ignored")
	provider.Subscribe()

	assert.Empty(t, factory.pub.sentFrames())
	assert.Empty(t, factory.sub.connects)
}

func TestCloseWaitsForBackgroundTasks(t *testing.T) {
	sink := emitter.New()
	factory := newFakeFactory()

	readyCh := make(chan struct{}, 1)
	sink.On(EventReady, func(any) { readyCh <- struct{}{} })

	provider, err := New(sink, testOptions(), factory)
	require.NoError(t, err)
	provider.Start(context.Background())
	waitSignal(t, readyCh, "ready event")
	provider.Subscribe()

	require.NoError(t, provider.Close())
	assert.Equal(t, 1, factory.pub.closeCount())
	assert.Equal(t, 1, factory.sub.closeCount())
	assert.True(t, provider.Closed())
}
