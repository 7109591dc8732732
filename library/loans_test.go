package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, inv *InventoryStore) *LoanLedger {
	t.Helper()
	ll, err := NewLoanLedger(newTestStorage(t), inv, testLogger())
	require.NoError(t, err)
	return ll
}

func TestIssueAndReturn(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	l, err := ll.Issue("U001", "200")
	require.NoError(t, err)
	assert.Equal(t, "L001", l.ID)
	assert.Equal(t, "B001", l.CopyID)
	assert.False(t, l.Returned)
	assert.Nil(t, l.ReturnDate)
	assert.Equal(t, 0, inv.Available("200"))
	assert.True(t, ll.HasActiveLoan("U001", "200"))

	got, err := ll.MarkReturned(l.ID)
	require.NoError(t, err)
	assert.True(t, got.Returned)
	require.NotNil(t, got.ReturnDate)
	assert.Equal(t, 1, inv.Available("200"))
	assert.False(t, ll.HasActiveLoan("U001", "200"))
}

func TestIssueRejections(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	_, err := ll.Issue("U001", "404")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = ll.Issue("U001", "200")
	require.NoError(t, err)

	// Same borrower, same title.
	_, err = ll.Issue("U001", "200")
	require.ErrorIs(t, err, ErrAlreadyBorrowed)

	// Different borrower, but the only copy is gone.
	_, err = ll.Issue("U002", "200")
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestReturnRejections(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	_, err := ll.MarkReturned("L404")
	require.ErrorIs(t, err, ErrNotFound)

	l, err := ll.Issue("U001", "200")
	require.NoError(t, err)
	_, err = ll.MarkReturned(l.ID)
	require.NoError(t, err)
	_, err = ll.MarkReturned(l.ID)
	require.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestHistoryIsMostRecentFirst(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "100", "Dune", "Frank Herbert")))
	require.NoError(t, inv.AddCopy(mustCopy(t, "B002", "200", "Emma", "Jane Austen")))
	require.NoError(t, inv.AddCopy(mustCopy(t, "B003", "300", "Ulysses", "James Joyce")))
	ll := newTestLedger(t, inv)
	stamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ll.now = func() time.Time {
		stamp = stamp.Add(time.Hour)
		return stamp
	}

	for _, isbn := range []string{"100", "200", "300"} {
		_, err := ll.Issue("U001", isbn)
		require.NoError(t, err)
	}

	h := ll.HistoryOf("U001")
	require.Len(t, h, 3)
	assert.Equal(t, "300", h[0].ISBN, "latest loan first")
	assert.Equal(t, "200", h[1].ISBN)
	assert.Equal(t, "100", h[2].ISBN)
	assert.True(t, h[0].IssueDate.After(h[2].IssueDate))

	recent := ll.RecentOf("U001", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "300", recent[0].ISBN)
	assert.Equal(t, "200", recent[1].ISBN)

	assert.Len(t, ll.RecentOf("U001", 10), 3)
	assert.Empty(t, ll.RecentOf("U001", 0))
	assert.Empty(t, ll.RecentOf("U001", -1))
	assert.Empty(t, ll.HistoryOf("U999"))
}

func TestHistorySurvivesReturn(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	l, err := ll.Issue("U001", "200")
	require.NoError(t, err)
	_, err = ll.MarkReturned(l.ID)
	require.NoError(t, err)

	h := ll.HistoryOf("U001")
	require.Len(t, h, 1)
	assert.Equal(t, l.ID, h[0].LoanID)
}

func TestActiveLoanLookups(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	require.NoError(t, inv.AddCopy(mustCopy(t, "B002", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	l1, err := ll.Issue("U001", "200")
	require.NoError(t, err)
	l2, err := ll.Issue("U002", "200")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{l1.ID, l2.ID}, ll.ActiveLoanIDsFor("200"))

	held := ll.ActiveLoanForCopy(l1.CopyID)
	require.NotNil(t, held)
	assert.Equal(t, l1.ID, held.ID)
	assert.Nil(t, ll.ActiveLoanForCopy("B404"))

	_, err = ll.MarkReturned(l1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{l2.ID}, ll.ActiveLoanIDsFor("200"))
	assert.Nil(t, ll.ActiveLoanForCopy(l1.CopyID))
}

func TestLedgerRoundTripRebuildsHistory(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "100", "Dune", "Frank Herbert")))
	require.NoError(t, inv.AddCopy(mustCopy(t, "B002", "200", "Emma", "Jane Austen")))

	st := newTestStorage(t)
	ll, err := NewLoanLedger(st, inv, testLogger())
	require.NoError(t, err)

	_, err = ll.Issue("U001", "100")
	require.NoError(t, err)
	l2, err := ll.Issue("U001", "200")
	require.NoError(t, err)
	_, err = ll.MarkReturned(l2.ID)
	require.NoError(t, err)

	reloaded, err := NewLoanLedger(st, inv, testLogger())
	require.NoError(t, err)

	require.Len(t, reloaded.All(), 2)
	assert.True(t, reloaded.HasActiveLoan("U001", "100"))
	assert.False(t, reloaded.HasActiveLoan("U001", "200"))

	h := reloaded.HistoryOf("U001")
	require.Len(t, h, 2)
	assert.Equal(t, "200", h[0].ISBN)
	assert.Equal(t, "100", h[1].ISBN)

	next, err := reloaded.Issue("U002", "200")
	require.NoError(t, err)
	assert.Equal(t, "L003", next.ID, "id counter resumes past persisted loans")
}

func TestFindByIDReturnsSnapshot(t *testing.T) {
	inv := newTestInventory(t)
	require.NoError(t, inv.AddCopy(mustCopy(t, "B001", "200", "Dune", "Frank Herbert")))
	ll := newTestLedger(t, inv)

	l, err := ll.Issue("U001", "200")
	require.NoError(t, err)

	snap := ll.FindByID(l.ID)
	require.NotNil(t, snap)
	snap.Returned = true
	assert.True(t, ll.HasActiveLoan("U001", "200"), "mutating the snapshot must not touch the ledger")
	assert.Nil(t, ll.FindByID("L404"))
}
