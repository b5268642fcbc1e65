package jobcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := NewBroker()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish(&Event{Type: EventJobCompleted, JobID: "job-1"})

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case e := <-sub:
			assert.Equal(t, "job-1", e.JobID)
			assert.False(t, e.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	assert.NotNil(t, sub)

	for i := 0; i < 100; i++ {
		b.Publish(&Event{Type: EventJobTriggered, JobID: "job-x"})
	}

	require.NotPanics(t, func() {
		b.Publish(&Event{Type: EventJobTriggered, JobID: "job-x"})
	})
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, ok := <-sub
	assert.False(t, ok)

	b.Publish(&Event{Type: EventJobFailed, JobID: "job-2"})
}
