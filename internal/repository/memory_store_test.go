package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
)

func seedTicket(t *testing.T, store *MemoryStore, id string, mutate func(*domain.Ticket)) {
	t.Helper()
	now := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:                 id,
		Subject:            "printer on fire",
		Priority:           "Alta",
		Creator:            domain.Creator{ID: "u-1", Name: "Ana"},
		Status:             domain.TicketStatusOpen,
		DestinationProfile: "Soporte",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if mutate != nil {
		mutate(ticket)
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(stores StoreProvider) error {
		seq, err := stores.Tickets().NextSequence(ctx, "CRM-1025")
		require.NoError(t, err)
		require.NoError(t, stores.Tickets().Create(ctx, &domain.Ticket{ID: domain.FormatTicketID("CRM-1025", seq)}))
		require.NoError(t, stores.Threads().Append(ctx, &domain.ThreadEntry{TicketID: "CRM-1025-0001", Text: "hi"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Tickets().GetByID(ctx, "CRM-1025-0001")
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := store.Threads().CountByTicket(ctx, "CRM-1025-0001")
	require.NoError(t, err)
	assert.Zero(t, count)

	// the rolled back allocation is released
	next, err := store.Tickets().NextSequence(ctx, "CRM-1025")
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestMemoryStore_InjectedFaultAbortsTransaction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store, "CRM-1025-0001", nil)

	injected := errors.New("disk full")
	store.InjectFault(FaultThreadAppend, injected)

	err := store.WithTx(ctx, func(stores StoreProvider) error {
		ticket, err := stores.Tickets().GetForUpdate(ctx, "CRM-1025-0001")
		if err != nil {
			return err
		}
		ticket.Status = domain.TicketStatusAwaitingSupport
		if err := stores.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return stores.Threads().Append(ctx, &domain.ThreadEntry{TicketID: ticket.ID, Text: "hello"})
	})
	require.ErrorIs(t, err, injected)

	ticket, err := store.Tickets().GetByID(ctx, "CRM-1025-0001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestMemoryStore_ConcurrentSequencesAreUnique(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 50
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithTx(ctx, func(stores StoreProvider) error {
				seq, err := stores.Tickets().NextSequence(ctx, "CRM-1025")
				if err != nil {
					return err
				}
				results <- seq
				return nil
			})
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for seq := range results {
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[i], "missing sequence %d", i)
	}
}

func TestMemoryStore_AppendKeepsStrictOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store, "CRM-1025-0001", nil)

	at := time.Date(2025, time.October, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Threads().Append(ctx, &domain.ThreadEntry{TicketID: "CRM-1025-0001", Text: "same instant", CreatedAt: at}))
	}

	entries, err := store.Threads().ListByTicket(ctx, "CRM-1025-0001")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt))
		assert.Greater(t, entries[i].ID, entries[i-1].ID)
	}
}

func TestMemoryStore_ListAppliesVisibility(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store, "CRM-1025-0001", nil)
	seedTicket(t, store, "CRM-1025-0002", func(t *domain.Ticket) {
		t.DestinationProfile = "Finanzas"
	})
	seedTicket(t, store, "CRM-1025-0003", func(t *domain.Ticket) {
		t.DestinationProfile = "Finanzas"
		t.Creator.ID = "agent-7"
	})

	tickets, err := store.Tickets().List(ctx, TicketFilter{Profile: "soporte", CreatorID: "agent-7"})
	require.NoError(t, err)
	ids := []string{}
	for _, tk := range tickets {
		ids = append(ids, tk.ID)
	}
	assert.ElementsMatch(t, []string{"CRM-1025-0001", "CRM-1025-0003"}, ids)

	all, err := store.Tickets().List(ctx, TicketFilter{AllProfiles: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_SurveyIsUniquePerTicket(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedTicket(t, store, "CRM-1025-0001", nil)

	require.NoError(t, store.Surveys().Create(ctx, &domain.Survey{TicketID: "CRM-1025-0001", Rating: 5}))
	err := store.Surveys().Create(ctx, &domain.Survey{TicketID: "CRM-1025-0001", Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStore_CancelledContextDoesNotCommit(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := store.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Tickets().Create(ctx, &domain.Ticket{ID: "CRM-1025-0001"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Tickets().GetByID(context.Background(), "CRM-1025-0001")
	assert.ErrorIs(t, err, ErrNotFound)
}
