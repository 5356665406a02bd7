package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/unabstore/shop/pkg/messaging/events"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	return "catalog.products.created"
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

type recordingNotifier struct {
	err    error
	events []events.ProductChangedEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e events.ProductChangedEvent) error {
	n.events = append(n.events, e)
	return n.err
}

func Test_handleMessage(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	validPayload, _ := events.ProductChangedEvent{
		Kind:       events.ProductCreated,
		ProductID:  "p-1",
		Collection: "productos",
		Name:       "Cuaderno",
		Price:      "5000",
		At:         time.Now(),
	}.Payload()

	testCases := []struct {
		name        string
		notifier    *recordingNotifier
		newMockMsg  func() *mockAckableMsg
		wantNotices int
	}{
		{
			name:     "valid message",
			notifier: &recordingNotifier{},
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(validPayload).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			wantNotices: 1,
		},
		{
			name:     "invalid message",
			notifier: &recordingNotifier{},
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
		},
		{
			name:     "unknown kind",
			notifier: &recordingNotifier{},
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(`{"kind":"renamed","product_id":"p-1"}`)).Times(1)
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
		},
		{
			name:     "notification fails",
			notifier: &recordingNotifier{err: errors.New("smtp down")},
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(validPayload).Times(1)
				msg.On("Nak").Return(nil).Times(1)
				return msg
			},
			wantNotices: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockMsg := tc.newMockMsg()

			// when
			handleMessage(context.Background(), mockMsg, tc.notifier, logger)

			// then
			mockMsg.AssertExpectations(t)
			assert.Len(t, tc.notifier.events, tc.wantNotices)
		})
	}
}
