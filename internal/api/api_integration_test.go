package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"platforma-zasobow/internal/models"
	"testing"

	"github.com/stretchr/testify/require"
)

func getUserAPI(t *testing.T, token string, userID int64) *models.User {
	t.Helper()

	rr := doRequest(t, "GET", fmt.Sprintf("/api/v1/users/%d", userID), token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	return &user
}

// Full platform walkthrough: an unlimited admin manages a quota-limited user
// through the whole resource lifecycle, then removes the account.
func TestAPI_PlatformLifecycle(t *testing.T) {
	adminToken := loginAPI(t, "admin@test.local", "password")

	userB := createUserAPI(t, "lifecycle-b@test.local")
	rr := doRequest(t, "PUT", fmt.Sprintf("/api/v1/users/%d/quota", userB.ID), adminToken, SetQuotaRequest{Quota: 2})
	require.Equal(t, http.StatusNoContent, rr.Code)

	tokenB := loginAPI(t, "lifecycle-b@test.local", "password")

	// B fills the quota
	rr = doRequest(t, "POST", fmt.Sprintf("/api/v1/users/%d/resources", userB.ID), tokenB,
		CreateResourceRequest{ResourceName: "r1"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var r1 models.Resource
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &r1))

	rr = doRequest(t, "POST", fmt.Sprintf("/api/v1/users/%d/resources", userB.ID), tokenB,
		CreateResourceRequest{ResourceName: "r2"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "POST", fmt.Sprintf("/api/v1/users/%d/resources", userB.ID), tokenB,
		CreateResourceRequest{ResourceName: "r3"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Len(t, listResourcesAPI(t, tokenB, userB.ID), 2)

	// the admin deletes r1 on B's behalf, freeing one slot
	rr = doRequest(t, "DELETE", fmt.Sprintf("/api/v1/users/%d/resources?resource_id=%s", userB.ID, r1.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, 1, getUserAPI(t, adminToken, userB.ID).QuotaRemaining)

	// B wipes everything, which resets the counter to the full quota
	rr = doRequest(t, "DELETE", fmt.Sprintf("/api/v1/users/%d/resources", userB.ID), tokenB, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	refreshed := getUserAPI(t, adminToken, userB.ID)
	require.Equal(t, 2, refreshed.QuotaRemaining)
	require.Empty(t, listResourcesAPI(t, tokenB, userB.ID))

	// the admin cannot remove their own account, but removes B with cascade
	rr = doRequest(t, "DELETE", fmt.Sprintf("/api/v1/users/%d", testAdmin.ID), adminToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, "POST", fmt.Sprintf("/api/v1/users/%d/resources", userB.ID), tokenB,
		CreateResourceRequest{ResourceName: "short-lived"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "DELETE", fmt.Sprintf("/api/v1/users/%d", userB.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, "GET", fmt.Sprintf("/api/v1/users/%d", userB.ID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// B's resources went with the account; nothing owned by B remains
	rr = doRequest(t, "GET", "/api/v1/resources", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all []models.Resource
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	for _, resource := range all {
		require.NotEqual(t, userB.ID, resource.OwnerID)
	}
}
