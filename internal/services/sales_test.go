package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

func newSaleFixture(t *testing.T) (*SaleService, storage.Store, *models.Item) {
	t.Helper()
	store := storage.NewMemoryStore()
	item := &models.Item{Name: "Natraj Pencils", Quantity: 10, Price: 5}
	require.NoError(t, store.CreateItem(item))
	return NewSaleService(store), store, item
}

func TestQuotePricesFromCatalog(t *testing.T) {
	sales, _, _ := newSaleFixture(t)

	lines, total, err := sales.Quote([]RequestedLine{{ItemName: "natraj pencils", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Natraj Pencils", lines[0].ItemName)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.InDelta(t, 5.0, lines[0].UnitPrice, 0.001)
	assert.InDelta(t, 10.0, total, 0.001)
}

func TestQuoteUnknownItem(t *testing.T) {
	sales, _, _ := newSaleFixture(t)

	_, _, err := sales.Quote([]RequestedLine{{ItemName: "Erasers", Quantity: 1}})
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestQuoteInsufficientStock(t *testing.T) {
	sales, _, _ := newSaleFixture(t)

	_, _, err := sales.Quote([]RequestedLine{{ItemName: "Natraj Pencils", Quantity: 11}})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)
}

// The same item split across lines is checked against stock in aggregate,
// not line by line.
func TestQuoteAggregatesDuplicateLines(t *testing.T) {
	sales, _, _ := newSaleFixture(t)

	lines, total, err := sales.Quote([]RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 6},
		{ItemName: "natraj pencils", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.InDelta(t, 50.0, total, 0.001)

	_, _, err = sales.Quote([]RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 6},
		{ItemName: "natraj pencils", Quantity: 5},
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)
}

func TestCreatePersistsPendingWithoutStockChange(t *testing.T) {
	sales, store, item := newSaleFixture(t)

	sale, err := sales.Create(1, "919876543210", "Raghav", []RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusPending, sale.Status)
	assert.Equal(t, "919876543210", sale.RetailerPhone)
	assert.InDelta(t, 15.0, sale.TotalAmount, 0.001)

	// Creation quotes, it does not deduct.
	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestCreateFailedLinePersistsNothing(t *testing.T) {
	sales, store, _ := newSaleFixture(t)

	_, err := sales.Create(1, "919876543210", "Raghav", []RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 2},
		{ItemName: "Erasers", Quantity: 1},
	})
	require.Error(t, err)

	all, err := store.GetSales(storage.SaleFilter{UserID: 1})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConfirmDecrementsStockExactlyOnce(t *testing.T) {
	sales, store, item := newSaleFixture(t)

	sale, err := sales.Create(1, "919876543210", "Raghav", []RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 3},
	})
	require.NoError(t, err)

	confirmed, err := sales.Confirm(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusSuccess, confirmed.Status)

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	_, err = sales.Confirm(sale.ID)
	assert.ErrorIs(t, err, storage.ErrSaleNotPending)
}

func TestRejectAndCancelLeaveStock(t *testing.T) {
	sales, store, item := newSaleFixture(t)

	rejectMe, err := sales.Create(1, "911", "Raghav", []RequestedLine{{ItemName: "Natraj Pencils", Quantity: 2}})
	require.NoError(t, err)
	cancelMe, err := sales.Create(1, "912", "Meera", []RequestedLine{{ItemName: "Natraj Pencils", Quantity: 2}})
	require.NoError(t, err)

	rejected, err := sales.Reject(rejectMe.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusFailed, rejected.Status)

	cancelled, err := sales.Cancel(cancelMe.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCancelled, cancelled.Status)

	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

// Snapshot prices stick: a catalog price change after creation must not
// change what the confirmed sale charges.
func TestConfirmUsesSnapshotPrices(t *testing.T) {
	sales, store, item := newSaleFixture(t)

	sale, err := sales.Create(1, "919876543210", "Raghav", []RequestedLine{
		{ItemName: "Natraj Pencils", Quantity: 2},
	})
	require.NoError(t, err)

	item.Price = 50
	require.NoError(t, store.UpdateItem(item))

	confirmed, err := sales.Confirm(sale.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, confirmed.TotalAmount, 0.001)

	lines, err := confirmed.Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.InDelta(t, 5.0, lines[0].UnitPrice, 0.001)
}

func TestTotalsMatch(t *testing.T) {
	assert.True(t, TotalsMatch(10.0, 10.0))
	assert.True(t, TotalsMatch(10.0, 10.009))
	assert.True(t, TotalsMatch(10.0, 9.991))
	assert.False(t, TotalsMatch(10.0, 10.02))
	assert.False(t, TotalsMatch(10.0, 9.5))
}
