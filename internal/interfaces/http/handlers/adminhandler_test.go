package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/interfaces/http/handlers/testutil"
	apperrors "github.com/repogate-inc/repogate/internal/shared/errors"
)

type mockRevokeAccessUC struct {
	err    error
	called bool
	gotCmd purchaseUsecases.RevokeAccessCommand
}

func (m *mockRevokeAccessUC) Execute(ctx context.Context, cmd purchaseUsecases.RevokeAccessCommand) error {
	m.called = true
	m.gotCmd = cmd
	return m.err
}

func TestAdminHandler_RevokeAccess_Success(t *testing.T) {
	mockUC := &mockRevokeAccessUC{}
	handler := NewAdminHandler(mockUC, testutil.NewMockLogger())

	reqBody := RevokeAccessRequest{ActorID: 7, Reason: "policy violation"}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/purchases/42/revoke", reqBody)
	testutil.SetURLParam(c, "id", "42")

	handler.RevokeAccess(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, mockUC.called)
	assert.Equal(t, uint(42), mockUC.gotCmd.PurchaseID)
	assert.Equal(t, uint(7), mockUC.gotCmd.ActorID)
	assert.Equal(t, "policy violation", mockUC.gotCmd.Reason)
}

func TestAdminHandler_RevokeAccess_InvalidID(t *testing.T) {
	mockUC := &mockRevokeAccessUC{}
	handler := NewAdminHandler(mockUC, testutil.NewMockLogger())

	reqBody := RevokeAccessRequest{ActorID: 7}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/purchases/abc/revoke", reqBody)
	testutil.SetURLParam(c, "id", "abc")

	handler.RevokeAccess(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}

func TestAdminHandler_RevokeAccess_PurchaseNotFound(t *testing.T) {
	mockUC := &mockRevokeAccessUC{err: apperrors.NewNotFoundError("purchase not found")}
	handler := NewAdminHandler(mockUC, testutil.NewMockLogger())

	reqBody := RevokeAccessRequest{ActorID: 7}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/purchases/42/revoke", reqBody)
	testutil.SetURLParam(c, "id", "42")

	handler.RevokeAccess(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_RevokeAccess_NotOwner(t *testing.T) {
	mockUC := &mockRevokeAccessUC{err: apperrors.NewForbiddenError("only the repository owner can revoke access")}
	handler := NewAdminHandler(mockUC, testutil.NewMockLogger())

	reqBody := RevokeAccessRequest{ActorID: 99}
	c, w := testutil.NewTestContext(http.MethodPost, "/api/admin/purchases/42/revoke", reqBody)
	testutil.SetURLParam(c, "id", "42")

	handler.RevokeAccess(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
