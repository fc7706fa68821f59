package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsyncBrokerRoundTrip(t *testing.T) {
	b := NewAsyncBroker(time.Second)
	id := b.NewRequestID()

	done := make(chan struct{})
	var got int32
	var gotErr error
	go func() {
		got, gotErr = b.Await(context.Background(), id)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.Pending() == 1 }, time.Second, time.Millisecond)
	require.True(t, b.HandleResponse(id, 42, nil))
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, int32(42), got)
}

func TestAsyncBrokerTimeout(t *testing.T) {
	b := NewAsyncBroker(10 * time.Millisecond)
	id := b.NewRequestID()

	val, err := b.Await(context.Background(), id)
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, SentinelInt, val)
}

func TestAsyncBrokerLateResponseDiscarded(t *testing.T) {
	b := NewAsyncBroker(5 * time.Millisecond)
	id := b.NewRequestID()

	_, err := b.Await(context.Background(), id)
	require.ErrorIs(t, err, ErrTimeout)

	require.False(t, b.HandleResponse(id, 99, nil))
}

func TestAsyncBrokerCancelWakesWaiters(t *testing.T) {
	b := NewAsyncBroker(time.Minute)
	id := b.NewRequestID()

	done := make(chan error, 1)
	go func() {
		_, err := b.Await(context.Background(), id)
		done <- err
	}()

	require.Eventually(t, func() bool { return b.Pending() == 1 }, time.Second, time.Millisecond)
	b.Cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrTimeout)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after Cancel")
	}
}
