// Package integration tests for the cash shift ledger: the one-open-shift
// invariant under concurrency and optimistic locking on close.
package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/cashier"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/persistence"
)

func TestCashShift_OnlyOneOpenPerStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCashShiftRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	storeID := uuid.New()

	first, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Maria", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Jorge", decimal.NewFromInt(50))
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, cashier.ErrShiftAlreadyOpen)

	// A different store in the same tenant is unaffected.
	other, err := cashier.OpenCashShift(tenantID, uuid.New(), uuid.New(), "Jorge", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	// Same store in a different tenant is unaffected too.
	crossTenant, err := cashier.OpenCashShift(uuid.New(), storeID, uuid.New(), "Elena", decimal.NewFromInt(80))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, crossTenant))
}

func TestCashShift_ConcurrentOpens_ExactlyOneWins(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCashShiftRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	storeID := uuid.New()

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			shift, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Cashier", decimal.NewFromInt(100))
			if err != nil {
				results[idx] = err
				return
			}
			results[idx] = repo.Save(ctx, shift)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, cashier.ErrShiftAlreadyOpen)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent open should win")

	count, err := repo.Count(ctx, tenantID, &storeID, shared.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCashShift_ReopenAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCashShiftRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	storeID := uuid.New()

	shift, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Maria", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, shift))

	require.NoError(t, shift.Close(decimal.NewFromInt(100), cashier.ShiftActivity{}, ""))
	require.NoError(t, repo.SaveWithLock(ctx, shift))

	// Closing released the partial-unique slot; the store can open again.
	next, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Jorge", decimal.NewFromInt(200))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, next))

	current, err := repo.FindOpenByStore(ctx, tenantID, storeID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, current.ID)
}

func TestCashShift_OptimisticLockOnClose(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCashShiftRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	storeID := uuid.New()

	shift, err := cashier.OpenCashShift(tenantID, storeID, uuid.New(), "Maria", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, shift))

	// Two sessions load the same shift version.
	loadedA, err := repo.FindByID(ctx, tenantID, shift.ID)
	require.NoError(t, err)
	loadedB, err := repo.FindByID(ctx, tenantID, shift.ID)
	require.NoError(t, err)

	require.NoError(t, loadedA.Close(decimal.NewFromInt(100), cashier.ShiftActivity{}, ""))
	require.NoError(t, repo.SaveWithLock(ctx, loadedA))

	require.NoError(t, loadedB.Close(decimal.NewFromInt(90), cashier.ShiftActivity{}, "late count"))
	err = repo.SaveWithLock(ctx, loadedB)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
}

func TestCashShift_MovementsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	repo := persistence.NewGormCashShiftRepository(tdb.DB)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	shift, err := cashier.OpenCashShift(tenantID, uuid.New(), userID, "Maria", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, shift))

	_, err = shift.AddMovement(cashier.MovementIn, decimal.NewFromInt(50), "Change from the safe", userID)
	require.NoError(t, err)
	_, err = shift.AddMovement(cashier.MovementOut, decimal.NewFromInt(30), "Cash drop", userID)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, shift))

	loaded, err := repo.FindByID(ctx, tenantID, shift.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Movements, 2)
	assert.True(t, loaded.CashIn().Equal(decimal.NewFromInt(50)), "cash in %s", loaded.CashIn())
	assert.True(t, loaded.CashOut().Equal(decimal.NewFromInt(30)), "cash out %s", loaded.CashOut())
}
