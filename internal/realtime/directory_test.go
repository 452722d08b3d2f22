package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

func TestDirectoryDeliversByVisibility(t *testing.T) {
	d := NewDirectory(4, nil, nil)
	agent := d.Register(&domain.Actor{ID: "a-1", Profile: "soporte", SupportAgent: true})
	creator := d.Register(&domain.Actor{ID: "u-1", Profile: "cliente"})
	stranger := d.Register(&domain.Actor{ID: "u-2", Profile: "cliente"})
	admin := d.Register(&domain.Actor{ID: "adm", Profile: "admin", Administrator: true})
	require.Equal(t, 4, d.Len())

	event := events.Event{
		Type:     events.EventMessageCreated,
		TicketID: "CRM-1025-0001",
		Audience: events.Audience{DestinationProfile: "Soporte", CreatorID: "u-1"},
	}
	require.NoError(t, LocalBroadcaster{Directory: d}.Broadcast(context.Background(), event))

	for _, sub := range []*Subscriber{agent, creator, admin} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, "CRM-1025-0001", got.TicketID)
		default:
			t.Fatalf("subscriber %s missed the event", sub.Actor.ID)
		}
	}
	select {
	case <-stranger.Events():
		t.Fatal("stranger received an event it cannot see")
	default:
	}
}

func TestDirectoryDropsWhenBufferFull(t *testing.T) {
	d := NewDirectory(1, nil, nil)
	d.Register(&domain.Actor{ID: "adm", Profile: "admin", Administrator: true})

	event := events.Event{Type: events.EventTicketCreated}
	assert.Equal(t, 1, d.Deliver(event))
	assert.Equal(t, 0, d.Deliver(event))
}

func TestDirectoryDeregisterClosesChannel(t *testing.T) {
	d := NewDirectory(1, nil, nil)
	sub := d.Register(&domain.Actor{ID: "u-1", Profile: "cliente"})

	d.Deregister(sub.ID)
	d.Deregister(sub.ID)
	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.Deliver(events.Event{Audience: events.Audience{CreatorID: "u-1"}}))
}

func TestDecodeEvent(t *testing.T) {
	original := events.Event{
		ID:       "evt-1",
		Type:     events.EventTicketStatusChanged,
		TicketID: "CRM-1025-0002",
		Audience: events.Audience{DestinationProfile: "soporte", CreatorID: "u-1"},
	}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := decodeEvent(map[string]any{eventField: string(data)})
	require.NoError(t, err)
	assert.Equal(t, original.TicketID, decoded.TicketID)
	assert.Equal(t, original.Audience, decoded.Audience)

	_, err = decodeEvent(map[string]any{})
	assert.Error(t, err)
	_, err = decodeEvent(map[string]any{eventField: "{"})
	assert.Error(t, err)
}
