package database

import (
	"context"
	"fmt"
	"platforma-zasobow/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateResource_UnlimitedQuota(t *testing.T) {
	user := createTestUser(t, "unlimited@test.local", false, models.UnlimitedQuota)

	for i := 0; i < 10; i++ {
		_, err := testStore.CreateResource(context.Background(), user.ID,
			fmt.Sprintf("res-unlimited-%02d-aaaa", i), "anything")
		require.NoError(t, err, "an unlimited user must never hit the quota")
	}

	fresh, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, models.UnlimitedQuota, fresh.QuotaRemaining, "unlimited quota is never decremented")
}

func TestCreateResource_QuotaExhaustion(t *testing.T) {
	user := createTestUser(t, "exhaust@test.local", false, 2)

	r1, err := testStore.CreateResource(context.Background(), user.ID, "res-exhaust-1-aaaaaaaa", "r1")
	require.NoError(t, err)
	require.Equal(t, "r1", r1.Name)
	require.Equal(t, user.ID, r1.OwnerID)

	_, err = testStore.CreateResource(context.Background(), user.ID, "res-exhaust-2-aaaaaaaa", "r2")
	require.NoError(t, err)

	_, err = testStore.CreateResource(context.Background(), user.ID, "res-exhaust-3-aaaaaaaa", "r3")
	require.ErrorIs(t, err, ErrQuotaExceeded)

	resources, err := testStore.GetUserResources(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Len(t, resources, 2, "the failed create must not persist a resource")

	fresh, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Zero(t, fresh.QuotaRemaining)
}

func TestCreateResource_MissingUser(t *testing.T) {
	_, err := testStore.CreateResource(context.Background(), 999999, "res-missing-aaaaaaaaa", "r")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteResource_ReplenishesQuota(t *testing.T) {
	user := createTestUser(t, "replenish@test.local", false, 2)

	r1, err := testStore.CreateResource(context.Background(), user.ID, "res-replenish-1-aaaaa", "r1")
	require.NoError(t, err)
	_, err = testStore.CreateResource(context.Background(), user.ID, "res-replenish-2-aaaaa", "r2")
	require.NoError(t, err)

	err = testStore.DeleteResource(context.Background(), user.ID, r1.ID)
	require.NoError(t, err)

	fresh, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fresh.QuotaRemaining, "deleting one resource frees exactly one slot")
}

func TestDeleteResource_NotOwned(t *testing.T) {
	owner := createTestUser(t, "owner@test.local", false, models.UnlimitedQuota)
	other := createTestUser(t, "other@test.local", false, models.UnlimitedQuota)

	r, err := testStore.CreateResource(context.Background(), owner.ID, "res-notowned-aaaaaaaa", "r")
	require.NoError(t, err)

	err = testStore.DeleteResource(context.Background(), other.ID, r.ID)
	require.ErrorIs(t, err, ErrResourceNotFound)

	err = testStore.DeleteResource(context.Background(), owner.ID, "no-such-resource-aaaa")
	require.ErrorIs(t, err, ErrResourceNotFound)
}

func TestDeleteAllResources_ResetsQuota(t *testing.T) {
	user := createTestUser(t, "deleteall@test.local", false, 3)

	_, err := testStore.CreateResource(context.Background(), user.ID, "res-deleteall-1-aaaaa", "r1")
	require.NoError(t, err)
	_, err = testStore.CreateResource(context.Background(), user.ID, "res-deleteall-2-aaaaa", "r2")
	require.NoError(t, err)

	deleted, err := testStore.DeleteAllResources(context.Background(), user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	fresh, err := testStore.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, fresh.Quota, fresh.QuotaRemaining, "bulk delete resets the counter to the full quota")

	resources, err := testStore.GetUserResources(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Empty(t, resources)
}

func TestGetUserResources_SingleByID(t *testing.T) {
	user := createTestUser(t, "single@test.local", false, models.UnlimitedQuota)

	r1, err := testStore.CreateResource(context.Background(), user.ID, "res-single-1-aaaaaaaa", "same-name")
	require.NoError(t, err)
	_, err = testStore.CreateResource(context.Background(), user.ID, "res-single-2-aaaaaaaa", "same-name")
	require.NoError(t, err)

	all, err := testStore.GetUserResources(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2, "names need not be unique, ids are")

	one, err := testStore.GetUserResources(context.Background(), user.ID, r1.ID)
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, r1.ID, one[0].ID)

	none, err := testStore.GetUserResources(context.Background(), user.ID, "no-such-id")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCreateResource_ConcurrentCreatesRespectQuota(t *testing.T) {
	const quota = 3
	const attempts = 10

	user := createTestUser(t, "concurrent@test.local", false, quota)

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = testStore.CreateResource(context.Background(), user.ID,
				fmt.Sprintf("res-concurrent-%02d-aa", i), "r")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrQuotaExceeded)
		}
	}
	require.Equal(t, quota, succeeded, "the row lock must serialize quota checks per user")

	resources, err := testStore.GetUserResources(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Len(t, resources, quota)
}

func TestResourceExists(t *testing.T) {
	user := createTestUser(t, "exists@test.local", false, models.UnlimitedQuota)

	r, err := testStore.CreateResource(context.Background(), user.ID, "res-exists-aaaaaaaaaa", "r")
	require.NoError(t, err)

	exists, err := testStore.ResourceExists(context.Background(), r.ID)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = testStore.ResourceExists(context.Background(), "definitely-not-there")
	require.NoError(t, err)
	require.False(t, exists)
}
