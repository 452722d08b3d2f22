package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_MessageDriven(t *testing.T) {
	for _, from := range []TicketStatus{TicketStatusOpen, TicketStatusAwaitingSupport, TicketStatusAwaitingClient} {
		t.Run(string(from), func(t *testing.T) {
			out, err := Transition(State{Status: from}, MessageEvent(SenderRoleUser))
			require.NoError(t, err)
			assert.Equal(t, TicketStatusAwaitingSupport, out.To)
			assert.Equal(t, []SideEffect{EffectAppendEntry}, out.Effects)

			out, err = Transition(State{Status: from}, MessageEvent(SenderRoleSupport))
			require.NoError(t, err)
			assert.Equal(t, TicketStatusAwaitingClient, out.To)
			assert.True(t, out.Has(EffectAppendEntry))
			assert.True(t, out.Has(EffectStampFirstResponse))
		})
	}
}

func TestTransition_MessagesOnFinalizedTickets(t *testing.T) {
	for _, from := range []TicketStatus{TicketStatusResolved, TicketStatusClosed} {
		for _, role := range []SenderRole{SenderRoleUser, SenderRoleSupport} {
			_, err := Transition(State{Status: from, Resolved: from == TicketStatusResolved}, MessageEvent(role))
			assert.ErrorIs(t, err, ErrTicketFinalized, "%s by %s", from, role)
		}
	}
}

func TestTransition_Resolve(t *testing.T) {
	out, err := Transition(State{Status: TicketStatusAwaitingClient}, SetStatusEvent(TicketStatusResolved))
	require.NoError(t, err)
	assert.Equal(t, TicketStatusAwaitingClient, out.From)
	assert.Equal(t, TicketStatusResolved, out.To)
	assert.True(t, out.Changed())
	assert.Equal(t, []SideEffect{EffectStampResolvedAt, EffectIssueSurvey, EffectAppendAudit}, out.Effects)
}

func TestTransition_ResolveTwiceConflicts(t *testing.T) {
	_, err := Transition(State{Status: TicketStatusResolved, Resolved: true}, SetStatusEvent(TicketStatusResolved))
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// resolved then closed: resolving again must not re-stamp
	_, err = Transition(State{Status: TicketStatusClosed, Resolved: true}, SetStatusEvent(TicketStatusResolved))
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestTransition_ClosedWithoutResolutionCanResolveOnce(t *testing.T) {
	out, err := Transition(State{Status: TicketStatusClosed}, SetStatusEvent(TicketStatusResolved))
	require.NoError(t, err)
	assert.True(t, out.Has(EffectIssueSurvey))
}

func TestTransition_Close(t *testing.T) {
	for _, from := range []TicketStatus{TicketStatusOpen, TicketStatusAwaitingClient, TicketStatusResolved} {
		out, err := Transition(State{Status: from, Resolved: from == TicketStatusResolved}, SetStatusEvent(TicketStatusClosed))
		require.NoError(t, err, from)
		assert.Equal(t, TicketStatusClosed, out.To)
		assert.Equal(t, []SideEffect{EffectStampClosedAt, EffectAppendAudit}, out.Effects)
	}

	out, err := Transition(State{Status: TicketStatusClosed}, SetStatusEvent(TicketStatusClosed))
	require.NoError(t, err)
	assert.False(t, out.Changed())
	assert.Empty(t, out.Effects)
}

func TestTransition_NoReopen(t *testing.T) {
	for _, from := range []TicketStatus{TicketStatusResolved, TicketStatusClosed} {
		for _, target := range []TicketStatus{TicketStatusOpen, TicketStatusAwaitingSupport, TicketStatusAwaitingClient} {
			_, err := Transition(State{Status: from}, SetStatusEvent(target))
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, target)
		}
	}
}

func TestTransition_SameStatusHasNoEffects(t *testing.T) {
	out, err := Transition(State{Status: TicketStatusOpen}, SetStatusEvent(TicketStatusOpen))
	require.NoError(t, err)
	assert.False(t, out.Changed())
	assert.Empty(t, out.Effects)

	out, err = Transition(State{Status: TicketStatusOpen}, SetStatusEvent(TicketStatusAwaitingClient))
	require.NoError(t, err)
	assert.Equal(t, []SideEffect{EffectAppendAudit}, out.Effects)
}

func TestTransition_UnknownTarget(t *testing.T) {
	_, err := Transition(State{Status: TicketStatusOpen}, SetStatusEvent("ARCHIVED"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// Every (status, event) pair must be decided by the table: either a rule or an error.
func TestTransition_TableIsExhaustive(t *testing.T) {
	events := []Event{MessageEvent(SenderRoleUser), MessageEvent(SenderRoleSupport)}
	for _, target := range TicketStatuses {
		events = append(events, SetStatusEvent(target))
	}
	for _, from := range TicketStatuses {
		for _, ev := range events {
			key := transitionKey{from: from, kind: ev.Kind, target: ev.Target}
			_, ok := transitions[key]
			assert.True(t, ok, "missing rule for %s on %s -> %s", ev.Kind, from, ev.Target)
		}
	}
}
