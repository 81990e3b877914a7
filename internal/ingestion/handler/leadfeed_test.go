package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

func init() {
	// Quiet logger for tests
	logger.Log = zap.NewNop()
}

type boardApplierStub struct {
	events []model.LeadEvent
}

func (s *boardApplierStub) ApplyEvent(ev model.LeadEvent) {
	s.events = append(s.events, ev)
}

func TestLeadFeedHandler_MapsSubjectToEventKind(t *testing.T) {
	testCases := []struct {
		eventType model.EventType
		expected  model.LeadEventKind
	}{
		{model.V1LeadsInsert, model.LeadEventInsert},
		{model.V1LeadsUpdate, model.LeadEventUpdate},
		{model.V1LeadsDelete, model.LeadEventDelete},
	}

	for _, tc := range testCases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			board := &boardApplierStub{}
			h := NewLeadFeedHandler(board)

			meta := &model.MessageMetadata{MessageSubject: string(tc.eventType)}
			err := h.HandleEvent(context.Background(), tc.eventType, meta, []byte(`{"id":"lead-1","phone":"999"}`))
			require.NoError(t, err)

			require.Len(t, board.events, 1)
			assert.Equal(t, tc.expected, board.events[0].Kind)
			assert.Equal(t, "lead-1", board.events[0].Lead.ID)
			assert.Equal(t, "999", board.events[0].Lead.Phone)
		})
	}
}

func TestLeadFeedHandler_UnsupportedEventTypeIsFatal(t *testing.T) {
	board := &boardApplierStub{}
	h := NewLeadFeedHandler(board)

	err := h.HandleEvent(context.Background(), model.V1InquiryProperty, &model.MessageMetadata{}, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Empty(t, board.events)
}

func TestLeadFeedHandler_MalformedPayloadIsFatal(t *testing.T) {
	board := &boardApplierStub{}
	h := NewLeadFeedHandler(board)

	err := h.HandleEvent(context.Background(), model.V1LeadsInsert, &model.MessageMetadata{}, []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Empty(t, board.events)
}

func TestLeadFeedHandler_MissingIDIsFatal(t *testing.T) {
	board := &boardApplierStub{}
	h := NewLeadFeedHandler(board)

	err := h.HandleEvent(context.Background(), model.V1LeadsDelete, &model.MessageMetadata{}, []byte(`{"phone":"999"}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Empty(t, board.events)
}

func TestLeadFeedHandler_DeleteOnlyNeedsID(t *testing.T) {
	board := &boardApplierStub{}
	h := NewLeadFeedHandler(board)

	err := h.HandleEvent(context.Background(), model.V1LeadsDelete, &model.MessageMetadata{}, []byte(`{"id":"lead-9"}`))
	require.NoError(t, err)
	require.Len(t, board.events, 1)
	assert.Equal(t, model.LeadEventDelete, board.events[0].Kind)
	assert.Equal(t, "lead-9", board.events[0].Lead.ID)
}
