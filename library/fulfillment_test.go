package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fulfillmentHarness wires real stores together the way the manager does,
// over a shared temp data dir.
type fulfillmentHarness struct {
	inv   *InventoryStore
	wl    *WaitingList
	loans *LoanLedger
}

func newFulfillmentHarness(t *testing.T) *fulfillmentHarness {
	t.Helper()
	st := newTestStorage(t)
	inv, err := NewInventoryStore(st, testLogger())
	require.NoError(t, err)
	loans, err := NewLoanLedger(st, inv, testLogger())
	require.NoError(t, err)
	wl, err := NewWaitingList(st, inv, loans, testLogger())
	require.NoError(t, err)
	loans.AttachReturnHandler(NewFulfillmentCoordinator(inv, wl, loans, testLogger()))
	return &fulfillmentHarness{inv: inv, wl: wl, loans: loans}
}

func TestReturnFulfillsWaitingReservation(t *testing.T) {
	h := newFulfillmentHarness(t)
	require.NoError(t, h.inv.AddCopy(mustCopy(t, "B001", "T1", "Dune", "Frank Herbert")))

	held, err := h.loans.Issue("B0", "T1")
	require.NoError(t, err)

	r, err := h.wl.Admit("T1", "B1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)

	_, err = h.loans.MarkReturned(held.ID)
	require.NoError(t, err)

	// The reservation was assigned and a loan for B1 now holds the copy.
	all := h.wl.All()
	require.Len(t, all, 1)
	assert.Equal(t, StatusAssigned, all[0].Status)
	assert.True(t, h.loans.HasActiveLoan("B1", "T1"))
	assert.Equal(t, 0, h.inv.Available("T1"), "copy went straight to the waiting borrower")
}

func TestReturnsFulfillInArrivalOrder(t *testing.T) {
	h := newFulfillmentHarness(t)
	require.NoError(t, h.inv.AddCopy(mustCopy(t, "B001", "T1", "Dune", "Frank Herbert")))

	hold := func(borrower string) string {
		t.Helper()
		l, err := h.loans.Issue(borrower, "T1")
		require.NoError(t, err)
		return l.ID
	}
	held := hold("B0")

	for _, b := range []string{"R1", "R2", "R3"} {
		_, err := h.wl.Admit("T1", b)
		require.NoError(t, err)
	}

	for _, want := range []string{"R1", "R2", "R3"} {
		_, err := h.loans.MarkReturned(held)
		require.NoError(t, err)
		assert.True(t, h.loans.HasActiveLoan(want, "T1"))

		next := h.loans.ActiveLoanIDsFor("T1")
		require.Len(t, next, 1, "exactly one active loan at a time")
		held = next[0]
	}

	assert.Empty(t, h.wl.PendingFor("T1"))
}

func TestReturnWithEmptyQueueLeavesCopyAvailable(t *testing.T) {
	h := newFulfillmentHarness(t)
	require.NoError(t, h.inv.AddCopy(mustCopy(t, "B001", "T1", "Dune", "Frank Herbert")))

	l, err := h.loans.Issue("B0", "T1")
	require.NoError(t, err)
	_, err = h.loans.MarkReturned(l.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, h.inv.Available("T1"))
	assert.Empty(t, h.loans.ActiveLoanIDsFor("T1"))
}

func TestCancelledReservationIsSkippedOnReturn(t *testing.T) {
	h := newFulfillmentHarness(t)
	require.NoError(t, h.inv.AddCopy(mustCopy(t, "B001", "T1", "Dune", "Frank Herbert")))

	held, err := h.loans.Issue("B0", "T1")
	require.NoError(t, err)

	r1, err := h.wl.Admit("T1", "B1")
	require.NoError(t, err)
	_, err = h.wl.Admit("T1", "B2")
	require.NoError(t, err)
	require.NoError(t, h.wl.Cancel(r1.ID))

	_, err = h.loans.MarkReturned(held.ID)
	require.NoError(t, err)

	assert.False(t, h.loans.HasActiveLoan("B1", "T1"))
	assert.True(t, h.loans.HasActiveLoan("B2", "T1"))
}

type errorIssuer struct{ calls int }

func (e *errorIssuer) Issue(borrowerID, isbn string) (*Loan, error) {
	e.calls++
	return nil, errors.New("ledger unavailable")
}

func TestIssueFailureLeavesReservationAssigned(t *testing.T) {
	h := newFulfillmentHarness(t)
	require.NoError(t, h.inv.AddCopy(mustCopy(t, "B001", "T1", "Dune", "Frank Herbert")))

	held, err := h.loans.Issue("B0", "T1")
	require.NoError(t, err)
	r, err := h.wl.Admit("T1", "B1")
	require.NoError(t, err)

	issuer := &errorIssuer{}
	h.loans.AttachReturnHandler(NewFulfillmentCoordinator(h.inv, h.wl, issuer, testLogger()))

	// The return commits even though the follow-up loan fails.
	got, err := h.loans.MarkReturned(held.ID)
	require.NoError(t, err)
	assert.True(t, got.Returned)
	assert.Equal(t, 1, issuer.calls)

	all := h.wl.All()
	require.Len(t, all, 1)
	assert.Equal(t, r.ID, all[0].ID)
	assert.Equal(t, StatusAssigned, all[0].Status)
}

func TestUnknownTitleReturnIsIgnored(t *testing.T) {
	h := newFulfillmentHarness(t)
	fc := NewFulfillmentCoordinator(h.inv, h.wl, h.loans, testLogger())

	// Nothing in inventory, nothing queued: HandleReturn must be a no-op.
	fc.HandleReturn("T404")
	assert.Empty(t, h.wl.All())
	assert.Empty(t, h.loans.All())
}
