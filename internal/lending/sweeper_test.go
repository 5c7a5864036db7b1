package lending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRunsUntilCancelled(t *testing.T) {
	store := newFakeStore()
	store.addBook(1, 1)
	store.addUser(1, true)
	svc, clock := newTestService(store)

	short := 1
	loan, err := svc.Borrow(context.Background(), BorrowRequest{BookID: 1, UserID: 1, Days: &short})
	require.NoError(t, err)
	clock.advance(2 * 24 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sw := NewSweeper(svc, 5*time.Millisecond)
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	// Wait for at least one tick to flip the lapsed loan.
	deadline := time.After(2 * time.Second)
	for {
		got, err := svc.Get(context.Background(), loan.TransactionID)
		require.NoError(t, err)
		if got.Status == StatusOverdue {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never marked the lapsed loan overdue")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}

	got, err := svc.Get(context.Background(), loan.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)
}
