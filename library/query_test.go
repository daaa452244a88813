package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayStatus(t *testing.T) {
	due := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	returnedAt := due.Add(-time.Hour)

	tests := []struct {
		name string
		r    Rental
		now  time.Time
		want RentalStatus
		days int
	}{
		{
			name: "active_before_due_day",
			r:    Rental{Status: StatusActive, DueDate: due},
			now:  due.AddDate(0, 0, -3),
			want: StatusActive,
			days: 3,
		},
		{
			name: "active_later_on_due_day",
			r:    Rental{Status: StatusActive, DueDate: due},
			now:  due.Add(5 * time.Hour),
			want: StatusActive,
			days: 0,
		},
		{
			name: "active_day_after_due",
			r:    Rental{Status: StatusActive, DueDate: due},
			now:  due.AddDate(0, 0, 1).Add(-17 * time.Hour),
			want: StatusOverdue,
			days: -1,
		},
		{
			name: "returned_is_never_overdue",
			r:    Rental{Status: StatusReturned, DueDate: due, ReturnDate: &returnedAt},
			now:  due.AddDate(0, 1, 0),
			want: StatusReturned,
			days: -31,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayStatus(tt.r, tt.now))
			assert.Equal(t, tt.days, DaysRemaining(tt.r, tt.now))
		})
	}
}

func TestSearchBooks(t *testing.T) {
	s, _ := newStore(t)
	for _, f := range []BookFields{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", TotalCopies: 1, AvailableCopies: 1},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", TotalCopies: 1, AvailableCopies: 1},
		{Title: "Foundation", Author: "Isaac Asimov", Genre: "Science Fiction", TotalCopies: 1, AvailableCopies: 1},
	} {
		_, err := s.AddBook(f)
		require.NoError(t, err)
	}

	titles := func(bs []Book) []string {
		var out []string
		for _, b := range bs {
			out = append(out, b.Title)
		}
		return out
	}

	assert.Equal(t, []string{"The Hobbit", "Dune", "Foundation"}, titles(s.SearchBooks("", "")))
	assert.Equal(t, []string{"The Hobbit"}, titles(s.SearchBooks("tolkien", "")))
	assert.Equal(t, []string{"Dune", "Foundation"}, titles(s.SearchBooks("FICTION", "")))
	assert.Equal(t, []string{"Foundation"}, titles(s.SearchBooks("asimov", "science fiction")))
	assert.Empty(t, s.SearchBooks("asimov", "Fantasy"))
	assert.Equal(t, []string{"Fantasy", "Science Fiction"}, s.Genres())

	dune := s.SearchBooks("dune", "")[0]
	require.NoError(t, s.UpdateBook(dune.ID, BookPatch{AvailableCopies: Ptr(0)}))
	assert.Equal(t, []string{"Foundation"}, titles(s.AvailableBooks("", "science fiction")))
	assert.Equal(t, []string{"The Hobbit", "Foundation"}, titles(s.AvailableBooks("", "")))
	assert.Empty(t, s.AvailableBooks("herbert", ""))
}

func TestRentalQueries(t *testing.T) {
	s, _ := newStore(t)
	b := mustAddBook(t, s, "Rebecca", 3)
	other := mustAddBook(t, s, "Shelved", 1)
	alice := mustAddMember(t, s, "alice")
	bob := mustAddMember(t, s, "bob")

	old, err := s.AddRental(RentalFields{
		BookID: b.ID, MemberID: alice.ID,
		RentalDate: testNow.AddDate(0, 0, -30),
		DueDate:    testNow.AddDate(0, 0, -16),
	})
	require.NoError(t, err)
	recent, err := s.AddRental(RentalFields{BookID: b.ID, MemberID: bob.ID, RentalDate: testNow.AddDate(0, 0, -1)})
	require.NoError(t, err)
	done, err := s.AddRental(RentalFields{BookID: other.ID, MemberID: alice.ID, RentalDate: testNow.AddDate(0, 0, -10)})
	require.NoError(t, err)
	require.NoError(t, s.UpdateRental(done.ID, RentalPatch{Status: Ptr(StatusReturned)}))

	ids := func(rs []Rental) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{old.ID, done.ID}, ids(s.RentalsForMember(alice.ID)))
	assert.Equal(t, []string{old.ID, recent.ID}, ids(s.ActiveRentals()))
	assert.Equal(t, []string{old.ID}, ids(s.OverdueRentals(testNow)))
	assert.Equal(t, []string{recent.ID, done.ID}, ids(s.RecentRentals(2)))
	assert.Len(t, s.RecentRentals(10), 3)

	avail := s.AvailableBooks("", "")
	require.Len(t, avail, 2)
	assert.Equal(t, 1, avail[0].AvailableCopies)
	assert.Equal(t, []string{done.ID}, ids(s.ReturnedRentals()))

	st := s.Stats(testNow)
	assert.Equal(t, Stats{
		Books:           2,
		TotalCopies:     4,
		AvailableCopies: 2,
		Members:         2,
		ActiveRentals:   2,
		OverdueRentals:  1,
		TotalRentals:    3,
	}, st)
}

func TestReturnedSnapshotsAreCopies(t *testing.T) {
	s, _ := newStore(t)
	b := mustAddBook(t, s, "Copy", 1)
	m := mustAddMember(t, s, "m1")
	r, err := s.AddRental(RentalFields{BookID: b.ID, MemberID: m.ID}, StatusReturned)
	require.NoError(t, err)

	*r.ReturnDate = time.Time{}
	books := s.Books()
	books[0].Title = "mutated"

	got, _ := s.GetRentalByID(r.ID)
	assert.Equal(t, testNow, *got.ReturnDate)
	again, _ := s.GetBookByID(b.ID)
	assert.Equal(t, "Copy", again.Title)
}

func TestFindMemberByEmail(t *testing.T) {
	s, _ := newStore(t)
	m := mustAddMember(t, s, "Carol")

	got, ok := s.FindMemberByEmail("CAROL@example.com")
	require.True(t, ok)
	assert.Equal(t, m.ID, got.ID)
	_, ok = s.FindMemberByEmail("nobody@example.com")
	assert.False(t, ok)
}

func TestDescribeUsesPlaceholdersForDeletedReferences(t *testing.T) {
	s, _ := newStore(t)
	b := mustAddBook(t, s, "Gone Girl", 1)
	m := mustAddMember(t, s, "Dana")
	r, err := s.AddRental(RentalFields{BookID: b.ID, MemberID: m.ID})
	require.NoError(t, err)

	v := s.Describe(r, testNow)
	assert.Equal(t, "Gone Girl", v.BookTitle)
	assert.Equal(t, "Dana", v.MemberName)
	assert.Equal(t, StatusActive, v.DisplayStatus)
	assert.Equal(t, 14, v.DaysRemaining)

	require.NoError(t, s.UpdateBook(b.ID, BookPatch{Title: Ptr("Renamed")}))
	require.NoError(t, s.DeleteMember(m.ID))
	v = s.Describe(r, testNow)
	assert.Equal(t, "Renamed", v.BookTitle)
	assert.Equal(t, DeletedMemberName, v.MemberName)

	v = s.Describe(Rental{BookID: "x", MemberID: "y", DueDate: testNow}, testNow)
	assert.Equal(t, DeletedBookTitle, v.BookTitle)
	assert.Equal(t, DeletedMemberName, v.MemberName)
}
