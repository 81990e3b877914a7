package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

func init() {
	// Quiet logger for tests
	logger.Log = zap.NewNop()
}

func metaWithDeliveries(n uint64) *nats.MsgMetadata {
	return &nats.MsgMetadata{NumDelivered: n}
}

func TestDetermineAckNakAction(t *testing.T) {
	const (
		maxDeliver = 5
		baseDelay  = 1 * time.Second
		maxDelay   = 30 * time.Second
	)

	retryable := apperrors.NewRetryable(errors.New("connection reset"), "db unavailable")
	fatal := apperrors.NewFatal(errors.New("bad json"), "unparseable payload")

	testCases := []struct {
		name           string
		processingErr  error
		numDelivered   uint64
		expectedAction AckNakAction
		expectedDelay  time.Duration
	}{
		{name: "success acks", processingErr: nil, numDelivered: 1, expectedAction: ActionAck},
		{name: "retryable first attempt naks with base delay", processingErr: retryable, numDelivered: 1, expectedAction: ActionNakDelay, expectedDelay: 1 * time.Second},
		{name: "retryable second attempt doubles delay", processingErr: retryable, numDelivered: 2, expectedAction: ActionNakDelay, expectedDelay: 2 * time.Second},
		{name: "retryable third attempt doubles again", processingErr: retryable, numDelivered: 3, expectedAction: ActionNakDelay, expectedDelay: 4 * time.Second},
		{name: "retryable fourth attempt keeps doubling", processingErr: retryable, numDelivered: 4, expectedAction: ActionNakDelay, expectedDelay: 8 * time.Second},
		{name: "max deliveries reached terminates", processingErr: retryable, numDelivered: 5, expectedAction: ActionTerm},
		{name: "beyond max deliveries terminates", processingErr: retryable, numDelivered: 7, expectedAction: ActionTerm},
		{name: "fatal error terminates immediately", processingErr: fatal, numDelivered: 1, expectedAction: ActionTerm},
		{name: "plain error is not retryable", processingErr: errors.New("unclassified"), numDelivered: 1, expectedAction: ActionTerm},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			action, delay := determineAckNakAction(tc.processingErr, metaWithDeliveries(tc.numDelivered), maxDeliver, baseDelay, maxDelay)
			assert.Equal(t, tc.expectedAction, action)
			assert.Equal(t, tc.expectedDelay, delay)
		})
	}
}

func TestDetermineAckNakAction_DelayCapped(t *testing.T) {
	retryable := apperrors.NewRetryable(errors.New("timeout"), "slow db")

	// Attempt 10 of 20: uncapped exponential would be 512s.
	action, delay := determineAckNakAction(retryable, metaWithDeliveries(10), 20, time.Second, 30*time.Second)
	assert.Equal(t, ActionNakDelay, action)
	assert.Equal(t, 30*time.Second, delay)
}
