package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStock map[string]int

func (s stubStock) HasISBN(isbn string) bool  { _, ok := s[isbn]; return ok }
func (s stubStock) Available(isbn string) int { return s[isbn] }

type stubLoans map[string]bool

func (s stubLoans) HasActiveLoan(borrowerID, isbn string) bool { return s[borrowerID+"|"+isbn] }

func newTestWaitingList(t *testing.T, stock stubStock, loans stubLoans) *WaitingList {
	t.Helper()
	wl, err := NewWaitingList(newTestStorage(t), stock, loans, testLogger())
	require.NoError(t, err)
	return wl
}

func TestAdmitGating(t *testing.T) {
	stock := stubStock{"200": 0, "45": 2}
	loans := stubLoans{"U002|200": true, "U002|45": true}
	wl := newTestWaitingList(t, stock, loans)

	// Unknown title.
	_, err := wl.Admit("404", "U001")
	require.ErrorIs(t, err, ErrUnknownTitle)

	// Stock still available.
	_, err = wl.Admit("45", "U001")
	require.ErrorIs(t, err, ErrStockAvailable)

	// Borrower already holds the title, with and without stock left.
	_, err = wl.Admit("200", "U002")
	require.ErrorIs(t, err, ErrAlreadyBorrowed)
	_, err = wl.Admit("45", "U002")
	require.ErrorIs(t, err, ErrAlreadyBorrowed)

	r, err := wl.Admit("200", "U001")
	require.NoError(t, err)
	assert.Equal(t, "R001", r.ID)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, int64(1), r.Arrival)
}

func TestFulfillEarliestIsFIFO(t *testing.T) {
	wl := newTestWaitingList(t, stubStock{"200": 0}, stubLoans{})

	r1, err := wl.Admit("200", "U001")
	require.NoError(t, err)
	r2, err := wl.Admit("200", "U002")
	require.NoError(t, err)
	r3, err := wl.Admit("200", "U003")
	require.NoError(t, err)

	// Arrival timestamps are strictly increasing.
	assert.Less(t, r1.Arrival, r2.Arrival)
	assert.Less(t, r2.Arrival, r3.Arrival)

	for _, want := range []*Reservation{r1, r2, r3} {
		got, err := wl.FulfillEarliest("200")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, StatusAssigned, got.Status)
		assert.Greater(t, got.Assigned, got.Arrival)
	}

	got, err := wl.FulfillEarliest("200")
	require.NoError(t, err)
	assert.Nil(t, got, "queue exhausted")
}

func TestCancelSkipsQueuePosition(t *testing.T) {
	wl := newTestWaitingList(t, stubStock{"200": 0}, stubLoans{})

	r1, _ := wl.Admit("200", "U001")
	_, err := wl.Admit("200", "U002")
	require.NoError(t, err)

	assert.Equal(t, 1, wl.PositionOf("U001", "200"))
	assert.Equal(t, 2, wl.PositionOf("U002", "200"))
	assert.Equal(t, 0, wl.PositionOf("U003", "200"))

	require.NoError(t, wl.Cancel(r1.ID))
	assert.Equal(t, 0, wl.PositionOf("U001", "200"))
	assert.Equal(t, 1, wl.PositionOf("U002", "200"))

	// Cancelled entries are terminal.
	require.ErrorIs(t, wl.Cancel(r1.ID), ErrNotFound)
	require.ErrorIs(t, wl.Cancel("R404"), ErrNotFound)

	got, err := wl.FulfillEarliest("200")
	require.NoError(t, err)
	assert.Equal(t, "U002", got.BorrowerID, "cancelled head must be skipped")
}

func TestAssignedReservationsAreKept(t *testing.T) {
	wl := newTestWaitingList(t, stubStock{"200": 0}, stubLoans{})

	r, _ := wl.Admit("200", "U001")
	_, err := wl.FulfillEarliest("200")
	require.NoError(t, err)

	all := wl.All()
	require.Len(t, all, 1)
	assert.Equal(t, r.ID, all[0].ID)
	assert.Equal(t, StatusAssigned, all[0].Status)
	require.ErrorIs(t, wl.Cancel(r.ID), ErrNotFound, "assigned entries cannot be cancelled")
}

func TestWaitingListRoundTripResumesClock(t *testing.T) {
	st := newTestStorage(t)
	stock := stubStock{"200": 0}
	wl, err := NewWaitingList(st, stock, stubLoans{}, testLogger())
	require.NoError(t, err)

	r1, _ := wl.Admit("200", "U001")
	_, err = wl.Admit("200", "U002")
	require.NoError(t, err)

	reloaded, err := NewWaitingList(st, stock, stubLoans{}, testLogger())
	require.NoError(t, err)

	r3, err := reloaded.Admit("200", "U003")
	require.NoError(t, err)
	assert.Greater(t, r3.Arrival, int64(2), "clock resumes past persisted maximum")
	assert.Equal(t, "R003", r3.ID)
	assert.Equal(t, 1, reloaded.PositionOf(r1.BorrowerID, "200"))
}
