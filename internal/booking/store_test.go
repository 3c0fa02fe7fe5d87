package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightbook/pkg/cache"
)

// outageCache simulates a backend whose reads fail while writes still work,
// the worst case for read-then-rewrite callers.
type outageCache struct {
	cache.Cache
	getErr error
}

func (o *outageCache) Get(ctx context.Context, key string) (string, error) {
	if o.getErr != nil {
		return "", o.getErr
	}
	return o.Cache.Get(ctx, key)
}

var _ cache.Cache = (*outageCache)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(cache.NewMemoryCache())
}

func TestListOnFreshStoreIsEmpty(t *testing.T) {
	store := newTestStore(t)

	bookings, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestReplaceUnknownBooking(t *testing.T) {
	store := newTestStore(t)

	err := store.Replace(context.Background(), Booking{BookingReference: "FBMISSING"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceSwapsMatchingRecordOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Booking{BookingReference: "FBA", BookingStatus: StatusPending}))
	require.NoError(t, store.Append(ctx, Booking{BookingReference: "FBB", BookingStatus: StatusPending}))

	updated := Booking{BookingReference: "FBB", BookingStatus: StatusCancelled}
	require.NoError(t, store.Replace(ctx, updated))

	a, err := store.GetByReference(ctx, "FBA")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.BookingStatus)

	b, err := store.GetByReference(ctx, "FBB")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.BookingStatus)
}

func TestBackendOutageDoesNotDestroyBookings(t *testing.T) {
	backing := &outageCache{Cache: cache.NewMemoryCache()}
	store := NewStore(backing)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Booking{BookingReference: "FBOLD", BookingStatus: StatusPending}))

	backing.getErr = errors.New("connection refused")

	// A failed read must surface, not masquerade as an empty collection
	// that the append would then overwrite.
	err := store.Append(ctx, Booking{BookingReference: "FBNEW", BookingStatus: StatusPending})
	require.Error(t, err)

	_, err = store.List(ctx)
	require.Error(t, err)

	_, err = store.GetByReference(ctx, "FBOLD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "an outage is not a missing booking")

	backing.getErr = nil

	bookings, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "FBOLD", bookings[0].BookingReference)
}

func TestSlotReadsSurfaceBackendErrors(t *testing.T) {
	backing := &outageCache{Cache: cache.NewMemoryCache(), getErr: errors.New("connection refused")}
	store := NewStore(backing)
	ctx := context.Background()

	_, err := store.PendingSelection(ctx)
	require.Error(t, err)

	_, err = store.PendingOrder(ctx)
	require.Error(t, err)
}

func TestPendingSelectionSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.PendingSelection(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)

	require.NoError(t, store.SavePendingSelection(ctx, testOffer("offer-9")))

	saved, err = store.PendingSelection(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "offer-9", saved.ID)

	require.NoError(t, store.ClearPendingSelection(ctx))

	saved, err = store.PendingSelection(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestPendingOrderSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order, err := store.PendingOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, order)

	require.NoError(t, store.SavePendingOrder(ctx, PendingOrder{OrderID: "ORD-1", BookingReference: "FBA"}))

	order, err = store.PendingOrder(ctx)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "ORD-1", order.OrderID)
	assert.Equal(t, "FBA", order.BookingReference)

	require.NoError(t, store.ClearPendingOrder(ctx))

	order, err = store.PendingOrder(ctx)
	require.NoError(t, err)
	assert.Nil(t, order)
}
