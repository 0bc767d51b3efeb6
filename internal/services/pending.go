package services

import (
	"errors"
	"sync"

	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

// PendingTracker correlates a phone number with the one sale awaiting that
// retailer's success/fail reply. The binding itself lives in the durable
// store (the newest pending Sale row carrying the phone number), so it
// survives restarts and is visible to every process; this type adds the
// per-phone mutual exclusion that keeps create/resolve races out.
type PendingTracker struct {
	store storage.Store
	sales *SaleService

	mu    sync.Mutex
	locks map[string]*phoneLock
}

// phoneLock is reference-counted so the map entry can be evicted once the
// last holder releases it; otherwise every phone number that ever messaged
// would leave a mutex behind for the life of the process.
type phoneLock struct {
	mu   sync.Mutex
	refs int
}

// NewPendingTracker creates a tracker over the given store.
func NewPendingTracker(store storage.Store, sales *SaleService) *PendingTracker {
	return &PendingTracker{
		store: store,
		sales: sales,
		locks: make(map[string]*phoneLock),
	}
}

// Lock acquires the per-phone mutex and returns the unlock function. Callers
// hold it across a create-then-supersede or resolve-then-transition pair.
func (t *PendingTracker) Lock(phone string) func() {
	t.mu.Lock()
	lock, ok := t.locks[phone]
	if !ok {
		lock = &phoneLock{}
		t.locks[phone] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, phone)
		}
		t.mu.Unlock()
	}
}

// Resolve returns the sale currently awaiting this phone number's reply, or
// nil when none is outstanding.
func (t *PendingTracker) Resolve(phone string) (*models.Sale, error) {
	sale, err := t.store.GetPendingSaleByPhone(phone)
	if err != nil {
		if errors.Is(err, storage.ErrSaleNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sale, nil
}

// Clear cancels the outstanding pending sale for the phone number, if any,
// and returns it. Used on logout; supersession cancels the specific prior
// sale instead, after its replacement exists.
func (t *PendingTracker) Clear(phone string) (*models.Sale, error) {
	sale, err := t.Resolve(phone)
	if err != nil || sale == nil {
		return nil, err
	}
	cancelled, err := t.sales.Cancel(sale.ID)
	if err != nil {
		// A concurrent reply may have resolved it first; that is fine.
		if errors.Is(err, storage.ErrSaleNotPending) {
			return nil, nil
		}
		return nil, err
	}
	return cancelled, nil
}
