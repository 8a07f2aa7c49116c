package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/temple-engagements/internal/persistence"
	"github.com/example/temple-engagements/internal/slots"
)

func TestStorageIsolatesCallersFromStoredState(t *testing.T) {
	ctx := context.Background()
	storage := Open()

	m := slots.Management{Enabled: true, TotalSlots: 2, SlotDuration: 15 * time.Minute}
	engagement := persistence.Engagement{ID: "eng-1", Title: "Clinic", Slots: &m}
	require.NoError(t, storage.CreateEngagement(ctx, engagement))

	m.TotalSlots = 99
	fetched, err := storage.GetEngagement(ctx, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Slots.TotalSlots, "caller mutation after create must not leak in")

	fetched.Slots.Bookings = append(fetched.Slots.Bookings, slots.Booking{ID: "b-1"})
	again, err := storage.GetEngagement(ctx, "eng-1")
	require.NoError(t, err)
	assert.Empty(t, again.Slots.Bookings, "mutating a read copy must not leak in")
}

func TestStorageSerializesMutations(t *testing.T) {
	ctx := context.Background()
	storage := Open()

	m := slots.Management{Enabled: true, TotalSlots: 1, SlotDuration: 15 * time.Minute, AllowWaitlist: true}
	require.NoError(t, storage.CreateEngagement(ctx, persistence.Engagement{ID: "eng-1", Slots: &m}))

	const users = 50
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := storage.MutateEngagement(ctx, "eng-1", func(e *persistence.Engagement) error {
				e.Slots.Book(slots.BookingRequest{
					ID:         fmt.Sprintf("b-%d", i),
					UserID:     fmt.Sprintf("user-%d", i),
					SlotNumber: 1,
				}, time.Unix(int64(i), 0))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := storage.GetEngagement(ctx, "eng-1")
	require.NoError(t, err)
	assert.Len(t, stored.Slots.Bookings, users)
	assert.Equal(t, 1, stored.Slots.Stats.BookedSlots)
	assert.Equal(t, users-1, stored.Slots.Stats.WaitlistCount)

	positions := make(map[int]bool)
	for _, b := range stored.Slots.Bookings {
		if b.Status == slots.StatusWaitlisted {
			positions[b.WaitlistPosition] = true
		}
	}
	for p := 1; p < users; p++ {
		assert.True(t, positions[p], "missing waitlist position %d", p)
	}
}

func TestStorageHonorsCancelledContext(t *testing.T) {
	storage := Open()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := storage.CreateEngagement(ctx, persistence.Engagement{ID: "eng-1"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = storage.ListEngagements(ctx, persistence.EngagementFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
