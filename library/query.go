package library

import (
	"slices"
	"strings"
	"time"
)

func cloneRental(r Rental) Rental {
	if r.ReturnDate != nil {
		rd := *r.ReturnDate
		r.ReturnDate = &rd
	}
	return r
}

func cloneRentals(rs []Rental) []Rental {
	out := make([]Rental, len(rs))
	for i, r := range rs {
		out[i] = cloneRental(r)
	}
	return out
}

// Books returns the catalog in insertion order.
func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books)
}

// Members returns the roster in insertion order.
func (s *Store) Members() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members)
}

// Rentals returns every rental in insertion order.
func (s *Store) Rentals() []Rental {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRentals(s.rentals)
}

// GetBookByID looks up a book. The second result is false if it does not exist.
func (s *Store) GetBookByID(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.bookIndex(id); i >= 0 {
		return s.books[i], true
	}
	return Book{}, false
}

// GetMemberByID looks up a member.
func (s *Store) GetMemberByID(id string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.memberIndex(id); i >= 0 {
		return s.members[i], true
	}
	return Member{}, false
}

// GetRentalByID looks up a rental.
func (s *Store) GetRentalByID(id string) (Rental, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.rentalIndex(id); i >= 0 {
		return cloneRental(s.rentals[i]), true
	}
	return Rental{}, false
}

// FindMemberByEmail returns the first member whose email matches,
// ignoring case.
func (s *Store) FindMemberByEmail(email string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if strings.EqualFold(m.Email, email) {
			return m, true
		}
	}
	return Member{}, false
}

// SearchBooks matches term case-insensitively against title, author and
// genre. A non-empty genre additionally restricts results to that genre.
// An empty term matches every book.
func (s *Store) SearchBooks(term, genre string) []Book {
	return s.findBooks(term, genre, false)
}

// AvailableBooks is SearchBooks limited to books with a copy on the shelf.
func (s *Store) AvailableBooks(term, genre string) []Book {
	return s.findBooks(term, genre, true)
}

func (s *Store) findBooks(term, genre string, onShelf bool) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))
	var out []Book
	for _, b := range s.books {
		if onShelf && b.AvailableCopies <= 0 {
			continue
		}
		if genre != "" && !strings.EqualFold(b.Genre, genre) {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(b.Title), term) ||
			strings.Contains(strings.ToLower(b.Author), term) ||
			strings.Contains(strings.ToLower(b.Genre), term) {
			out = append(out, b)
		}
	}
	return out
}

// Genres lists the distinct non-empty genres in first-seen order.
func (s *Store) Genres() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, b := range s.books {
		if b.Genre != "" && !slices.Contains(out, b.Genre) {
			out = append(out, b.Genre)
		}
	}
	return out
}

// RentalsForMember returns the member's rentals in insertion order.
func (s *Store) RentalsForMember(memberID string) []Rental {
	return s.filterRentals(func(r Rental) bool { return r.MemberID == memberID })
}

// ActiveRentals returns every rental not yet returned.
func (s *Store) ActiveRentals() []Rental {
	return s.filterRentals(func(r Rental) bool { return r.Status == StatusActive })
}

// ReturnedRentals returns every returned rental.
func (s *Store) ReturnedRentals() []Rental {
	return s.filterRentals(func(r Rental) bool { return r.Status == StatusReturned })
}

// OverdueRentals returns the rentals DisplayStatus reports as overdue at now.
func (s *Store) OverdueRentals(now time.Time) []Rental {
	return s.filterRentals(func(r Rental) bool { return DisplayStatus(r, now) == StatusOverdue })
}

// RecentRentals returns up to n rentals, newest rental date first.
func (s *Store) RecentRentals(n int) []Rental {
	rs := s.Rentals()
	slices.SortStableFunc(rs, func(a, b Rental) int { return b.RentalDate.Compare(a.RentalDate) })
	if n >= 0 && len(rs) > n {
		rs = rs[:n]
	}
	return rs
}

func (s *Store) filterRentals(keep func(Rental) bool) []Rental {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Rental
	for _, r := range s.rentals {
		if keep(r) {
			out = append(out, cloneRental(r))
		}
	}
	return out
}

// DisplayStatus is the status shown to users: an active rental whose due
// date lies on a calendar day before now's is overdue. It never changes the
// stored status.
func DisplayStatus(r Rental, now time.Time) RentalStatus {
	if r.Status == StatusReturned {
		return StatusReturned
	}
	if dayOf(now).After(dayOf(r.DueDate)) {
		return StatusOverdue
	}
	return StatusActive
}

// DaysRemaining is the number of calendar days until the due date, negative
// once it has passed.
func DaysRemaining(r Rental, now time.Time) int {
	return int(dayOf(r.DueDate).Sub(dayOf(now)).Hours() / 24)
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Stats summarizes the collections for the dashboard.
type Stats struct {
	Books           int `json:"books"`
	TotalCopies     int `json:"totalCopies"`
	AvailableCopies int `json:"availableCopies"`
	Members         int `json:"members"`
	ActiveRentals   int `json:"activeRentals"`
	OverdueRentals  int `json:"overdueRentals"`
	TotalRentals    int `json:"totalRentals"`
}

// Stats computes dashboard counters at now.
func (s *Store) Stats(now time.Time) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Books:        len(s.books),
		Members:      len(s.members),
		TotalRentals: len(s.rentals),
	}
	for _, b := range s.books {
		st.TotalCopies += b.TotalCopies
		st.AvailableCopies += b.AvailableCopies
	}
	for _, r := range s.rentals {
		switch DisplayStatus(r, now) {
		case StatusActive:
			st.ActiveRentals++
		case StatusOverdue:
			st.ActiveRentals++
			st.OverdueRentals++
		}
	}
	return st
}
