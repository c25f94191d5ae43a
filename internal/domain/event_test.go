package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventDraft, EventPublished, true},
		{EventDraft, EventCancelled, true},
		{EventDraft, EventCompleted, false},
		{EventPublished, EventDraft, true},
		{EventPublished, EventCancelled, true},
		{EventPublished, EventCompleted, true},
		{EventCancelled, EventDraft, false},
		{EventCancelled, EventPublished, false},
		{EventCompleted, EventPublished, false},
		{EventCompleted, EventCancelled, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestEventRegistrationOpen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"draft never open", Event{Status: EventDraft}, false},
		{"published no window", Event{Status: EventPublished}, true},
		{"window includes now", Event{Status: EventPublished, RegOpensAt: &before, RegClosesAt: &after}, true},
		{"window not yet open", Event{Status: EventPublished, RegOpensAt: &after}, false},
		{"window already closed", Event{Status: EventPublished, RegClosesAt: &before}, false},
		{"closes exactly now", Event{Status: EventPublished, RegClosesAt: &now}, false},
		{"cancelled never open", Event{Status: EventCancelled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.event.RegistrationOpen(now))
		})
	}
}

func TestTicketTypeCanReserve(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	after := now.Add(time.Hour)
	two := 2

	tests := []struct {
		name    string
		tt      TicketType
		wantErr error
	}{
		{"active unlimited", TicketType{Active: true}, nil},
		{"inactive", TicketType{Active: false}, ErrSalesNotOpen},
		{"sales not started", TicketType{Active: true, SalesOpenAt: &after}, ErrSalesNotOpen},
		{"capacity remaining", TicketType{Active: true, Quantity: &two, SoldCount: 1}, nil},
		{"sold out", TicketType{Active: true, Quantity: &two, SoldCount: 2}, ErrSoldOut},
		{"reserved counts against capacity", TicketType{Active: true, Quantity: &two, SoldCount: 1, ReservedCount: 1}, ErrSoldOut},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tt.CanReserve(now)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
