package changefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_PublishReachesSubscribers(t *testing.T) {
	feed := New("node-a")

	var got []Change
	sub := feed.Subscribe(func(c Change) { got = append(got, c) })
	defer sub.Unsubscribe()

	feed.Publish(Change{Op: OpInsert, ItemID: "1", UserID: "u"})

	require.Len(t, got, 1)
	assert.Equal(t, OpInsert, got[0].Op)
	assert.Equal(t, "node-a", got[0].Origin)
	assert.False(t, got[0].At.IsZero())
}

func TestFeed_ForeignOriginIsKept(t *testing.T) {
	feed := New("node-a")
	var got Change
	feed.Subscribe(func(c Change) { got = c })

	feed.Publish(Change{Op: OpDelete, ItemID: "1", Origin: "node-b"})
	assert.Equal(t, "node-b", got.Origin)
}

func TestFeed_Unsubscribe(t *testing.T) {
	feed := New("n")
	calls := 0
	sub := feed.Subscribe(func(Change) { calls++ })
	assert.Equal(t, 1, feed.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	feed.Publish(Change{Op: OpUpdate})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, feed.Len())
}

func TestFeed_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	feed := New("n")
	delivered := 0
	feed.Subscribe(func(Change) { panic("boom") })
	feed.Subscribe(func(Change) { delivered++ })

	assert.NotPanics(t, func() { feed.Publish(Change{Op: OpUpdate}) })
	assert.Equal(t, 1, delivered)
}
