package stock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/stock"
)

func TestConcurrentDecreases(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA, 10)

	const workers = 2
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		errs      = make([]error, workers)
		succeeded int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.CreateMovement(f.ctx("STAFF"), stock.CreateMovementInput{
				BranchID:  f.branchA,
				ProductID: f.productID,
				Type:      stock.TypeOut,
				Reason:    stock.ReasonSale,
				Quantity:  5,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			apperror.IsInsufficientStock(err) || apperror.IsConcurrentModification(err),
			"unexpected error: %v", err)
	}

	require.GreaterOrEqual(t, succeeded, int64(1))
	assert.Equal(t, 10-5*succeeded, f.quantity(t, f.branchA))
	assert.Len(t, f.history(t, f.branchA), int(1+succeeded))
	assert.Equal(t, signedSum(f.history(t, f.branchA)), f.quantity(t, f.branchA))
}

func TestConcurrentDecreasesAtExactQuantity(t *testing.T) {
	for run := 0; run < 50; run++ {
		f := newFixture(t)
		f.seed(t, f.branchA, 5)

		const workers = 2
		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, workers)
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = f.svc.CreateMovement(f.ctx("STAFF"), stock.CreateMovementInput{
					BranchID:  f.branchA,
					ProductID: f.productID,
					Type:      stock.TypeOut,
					Reason:    stock.ReasonSale,
					Quantity:  5,
				})
			}(i)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t,
				apperror.IsInsufficientStock(err) || apperror.IsConcurrentModification(err),
				"unexpected error: %v", err)
		}

		require.Equal(t, 1, succeeded)
		assert.Equal(t, int64(0), f.quantity(t, f.branchA))
		assert.Len(t, f.history(t, f.branchA), 2)
	}
}

func TestConcurrentTransfersConserveStock(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA, 20)

	const workers = 10
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.TransferStock(f.ctx("MANAGER"), stock.TransferInput{
				SourceBranchID:      f.branchA,
				DestinationBranchID: f.branchB,
				ProductID:           f.productID,
				Quantity:            1,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded int64
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			apperror.IsInsufficientStock(err) || apperror.IsConcurrentModification(err),
			"unexpected error: %v", err)
	}

	a := f.quantity(t, f.branchA)
	b := f.quantity(t, f.branchB)
	assert.Equal(t, int64(20), a+b)
	assert.Equal(t, 20-succeeded, a)
	assert.Equal(t, succeeded, b)

	// One seed plus one TRANSFER_OUT per committed transfer.
	assert.Len(t, f.history(t, f.branchA), int(1+succeeded))
	assert.Len(t, f.history(t, f.branchB), int(succeeded))
	assert.Equal(t, signedSum(f.history(t, f.branchA)), a)
	assert.Equal(t, signedSum(f.history(t, f.branchB)), b)
}

func TestRetryAfterConflictSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.branchA, 10)

	in := stock.CreateMovementInput{
		BranchID:  f.branchA,
		ProductID: f.productID,
		Type:      stock.TypeOut,
		Reason:    stock.ReasonSale,
		Quantity:  5,
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateMovement(f.ctx("STAFF"), in)
		}(i)
	}
	wg.Wait()

	// A caller that lost the race resubmits and now sees the new version.
	for _, err := range errs {
		if apperror.IsConcurrentModification(err) {
			_, err = f.svc.CreateMovement(f.ctx("STAFF"), in)
			require.NoError(t, err)
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, int64(0), f.quantity(t, f.branchA))
}
