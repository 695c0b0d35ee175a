package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"platewire/internal/core/domain"
	apperrors "platewire/pkg/errors"
	"platewire/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderHandler(rooms *MockRoomManager) *OrderHandler {
	return NewOrderHandler(rooms, nil, logger.NewNop())
}

func TestOrderCreateByWaiter(t *testing.T) {
	rooms := &MockRoomManager{}
	rooms.On("EmitToRoom", domain.RoomOrders, "order:created", mock.Anything).Once()
	rooms.On("EmitToUser", domain.UserID("cust-7"), "order:created", mock.Anything).Once()

	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	err := h.handleCreate(context.Background(), sub, json.RawMessage(
		`{"tableId":"t5","customerId":"cust-7","items":[{"productId":"p1","name":"Latte","quantity":1,"price":4.5}],"total":4.5}`,
	))
	require.NoError(t, err)

	rooms.AssertExpectations(t)
	require.Equal(t, []string{"order:create_success"}, sub.events)

	env := sub.payloads[0].(domain.OrderEnvelope)
	assert.Equal(t, domain.OrderPending, env.Status, "new orders always start pending")
	assert.NotEmpty(t, env.OrderID, "server assigns the id when the client sent none")
	assert.Equal(t, domain.UserID("u-waiter"), env.UpdatedBy)
	assert.False(t, env.Timestamp.IsZero())
}

func TestOrderCreateByOwningCustomer(t *testing.T) {
	rooms := &MockRoomManager{}
	rooms.On("EmitToRoom", domain.RoomOrders, "order:created", mock.Anything).Once()
	rooms.On("EmitToUser", domain.UserID("cust-7"), "order:created", mock.Anything).Once()

	h := newOrderHandler(rooms)
	sub := newStubSubscriber("cust-7", domain.RoleCustomer)

	err := h.handleCreate(context.Background(), sub, json.RawMessage(
		`{"customerId":"cust-7","items":[{"productId":"p1","quantity":1}]}`,
	))
	require.NoError(t, err)
	rooms.AssertExpectations(t)
}

func TestOrderCreateByForeignCustomerDenied(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("cust-7", domain.RoleCustomer)

	err := h.handleCreate(context.Background(), sub, json.RawMessage(
		`{"customerId":"cust-8","items":[{"productId":"p1","quantity":1}]}`,
	))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodePermissionDenied, appErr.Code)
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderCreateRequiresItems(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	err := h.handleCreate(context.Background(), sub, json.RawMessage(`{"customerId":"cust-7"}`))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidData, appErr.Code)
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusReadyFansOutToFrontOfHouse(t *testing.T) {
	rooms := &MockRoomManager{}
	rooms.On("EmitToRoles",
		[]domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleWaiter},
		"order:status_changed", mock.Anything,
	).Once()
	rooms.On("EmitToUser", domain.UserID("cust-1"), "order:status_changed", mock.Anything).Once()

	h := newOrderHandler(rooms)
	// A waiter may flag ready: the handoff is visible from both sides.
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	err := h.handleStatusChange(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","customerId":"cust-1","status":"ready","previousStatus":"preparing"}`,
	))
	require.NoError(t, err)

	rooms.AssertExpectations(t)
	assert.Equal(t, []string{"order:status_change_success"}, sub.events)
}

func TestOrderStatusPreparingFansOutToKitchenSide(t *testing.T) {
	rooms := &MockRoomManager{}
	rooms.On("EmitToRoles",
		[]domain.Role{domain.RoleKitchen, domain.RoleAdmin, domain.RoleOwner},
		"order:status_changed", mock.Anything,
	).Once()
	rooms.On("EmitToUser", domain.UserID("cust-1"), "order:status_changed", mock.Anything).Once()

	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-chef", domain.RoleKitchen)

	err := h.handleStatusChange(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","customerId":"cust-1","status":"preparing"}`,
	))
	require.NoError(t, err)
	rooms.AssertExpectations(t)
}

func TestOrderStatusChangeDeniedRole(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-cashier", domain.RoleCashier)

	err := h.handleStatusChange(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","status":"preparing"}`,
	))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodePermissionDenied, appErr.Code)
	rooms.AssertNotCalled(t, "EmitToRoles", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusChangeInvalidTransitionNoBroadcast(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	// delivered is terminal; nothing leaves it.
	err := h.handleStatusChange(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","status":"cancelled","previousStatus":"delivered"}`,
	))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidData, appErr.Code)
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToRoles", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderCancelByOwningCustomer(t *testing.T) {
	rooms := &MockRoomManager{}
	rooms.On("EmitToRoom", domain.RoomOrders, "order:status_changed", mock.Anything).Once()
	rooms.On("EmitToUser", domain.UserID("cust-1"), "order:status_changed", mock.Anything).Once()

	h := newOrderHandler(rooms)
	sub := newStubSubscriber("cust-1", domain.RoleCustomer)

	err := h.handleCancel(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","customerId":"cust-1"}`,
	))
	require.NoError(t, err)

	rooms.AssertExpectations(t)
	env := sub.payloads[0].(domain.OrderEnvelope)
	assert.Equal(t, domain.OrderCancelled, env.Status)
}

func TestOrderQueriesGatedByRole(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)

	customer := newStubSubscriber("cust-1", domain.RoleCustomer)
	err := h.handleGetActive(context.Background(), customer, nil)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodePermissionDenied, appErr.Code)

	waiter := newStubSubscriber("u-waiter", domain.RoleWaiter)
	err = h.handleGetKitchenQueue(context.Background(), waiter, nil)
	appErr = apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodePermissionDenied, appErr.Code, "the kitchen queue is kitchen-side only")
}

func TestOrderStatusChangeUnknownStatusRejected(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	err := h.handleStatusChange(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","status":"exploded"}`,
	))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidData, appErr.Code,
		"unknown statuses never resolve to a role set")
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToRoles", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUpdateUnknownStatusRejected(t *testing.T) {
	rooms := &MockRoomManager{}
	h := newOrderHandler(rooms)
	sub := newStubSubscriber("u-waiter", domain.RoleWaiter)

	err := h.handleUpdate(context.Background(), sub, json.RawMessage(
		`{"orderId":"o1","status":"exploded","total":10}`,
	))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidData, appErr.Code)
	rooms.AssertNotCalled(t, "EmitToRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything, mock.Anything)
}
