package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
)

type recordingBroadcaster struct {
	events []events.Event
	err    error
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, event events.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestNotificationServiceForwardsCommittedEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	broadcaster := &recordingBroadcaster{}
	n := NewNotificationService(dispatcher, broadcaster, nil, nil, config.NotificationConfig{
		EmailFrom:     "desk@example.com",
		SurveyBaseURL: "https://desk.example.com/surveys/",
	})
	n.RegisterHandlers()
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventMessageCreated, TicketID: "CRM-1025-0001"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventSurveyIssued,
		TicketID: "CRM-1025-0001",
		Payload:  events.SurveyIssuedPayload{Token: "secret", RecipientEmail: "ana@example.com"},
	}))

	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, events.EventMessageCreated, broadcaster.events[0].Type)
	assert.Equal(t, "https://desk.example.com/surveys/abc", n.SurveyLink("abc"))
}

func TestNotificationServiceBroadcastFailureDoesNotPropagate(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	n := NewNotificationService(dispatcher, &recordingBroadcaster{err: errors.New("redis down")}, nil, nil, config.NotificationConfig{})
	n.RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketStatusChanged}))
}
