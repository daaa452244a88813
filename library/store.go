package library

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidStatus is returned when a rental would be stored with a status
// other than active or returned.
var ErrInvalidStatus = errors.New("invalid rental status")

// Store owns the books, members and rentals collections. Every mutation is
// written through to the KV before it returns; "not found" is never an error.
type Store struct {
	mu   sync.RWMutex
	kv   KV
	opts options

	books   []Book
	members []Member
	rentals []Rental
}

// Open loads the three collections from kv. A snapshot that fails to decode
// makes Open fail with ErrCorruptSnapshot.
func Open(kv KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, opts: newOptions(opts)}
	if _, err := loadSnapshot(kv, KeyBooks, &s.books); err != nil {
		return nil, err
	}
	if _, err := loadSnapshot(kv, KeyMembers, &s.members); err != nil {
		return nil, err
	}
	if _, err := loadSnapshot(kv, KeyRentals, &s.rentals); err != nil {
		return nil, err
	}
	s.normalizeRentals()
	s.opts.logger.Debug("store loaded",
		"books", len(s.books), "members", len(s.members), "rentals", len(s.rentals))
	return s, nil
}

// normalizeRentals maps stored statuses onto {active, returned}. Older
// snapshots may carry "overdue", which is a display state only.
func (s *Store) normalizeRentals() {
	for i := range s.rentals {
		if s.rentals[i].Status.Valid() {
			continue
		}
		s.opts.logger.Warn("normalizing stored rental status",
			"rental", s.rentals[i].ID, "status", s.rentals[i].Status)
		s.rentals[i].Status = StatusActive
	}
}

func (s *Store) saveBooks() error   { return saveSnapshot(s.kv, KeyBooks, s.books) }
func (s *Store) saveMembers() error { return saveSnapshot(s.kv, KeyMembers, s.members) }
func (s *Store) saveRentals() error { return saveSnapshot(s.kv, KeyRentals, s.rentals) }

func (s *Store) bookIndex(id string) int {
	return slices.IndexFunc(s.books, func(b Book) bool { return b.ID == id })
}

func (s *Store) memberIndex(id string) int {
	return slices.IndexFunc(s.members, func(m Member) bool { return m.ID == id })
}

func (s *Store) rentalIndex(id string) int {
	return slices.IndexFunc(s.rentals, func(r Rental) bool { return r.ID == id })
}

// ------------------ Books ------------------

// AddBook appends a new book with a fresh id and creation time.
func (s *Store) AddBook(f BookFields) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := Book{
		ID:              s.opts.newID(),
		Title:           f.Title,
		Author:          f.Author,
		Genre:           f.Genre,
		PublishedYear:   f.PublishedYear,
		TotalCopies:     f.TotalCopies,
		AvailableCopies: f.AvailableCopies,
		Description:     f.Description,
		CreatedAt:       s.opts.now().UTC(),
	}
	b.clampAvailability()
	s.books = append(s.books, b)
	if err := s.saveBooks(); err != nil {
		return Book{}, err
	}
	s.opts.logger.Debug("book added", "id", b.ID, "title", b.Title)
	return b, nil
}

// UpdateBook merges p into the book with the given id.
func (s *Store) UpdateBook(id string, p BookPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.bookIndex(id)
	if i < 0 {
		return nil
	}
	b := &s.books[i]
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.PublishedYear != nil {
		b.PublishedYear = *p.PublishedYear
	}
	if p.TotalCopies != nil {
		b.TotalCopies = *p.TotalCopies
	}
	if p.AvailableCopies != nil {
		b.AvailableCopies = *p.AvailableCopies
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	b.clampAvailability()
	if err := s.saveBooks(); err != nil {
		return err
	}
	s.opts.logger.Debug("book updated", "id", id)
	return nil
}

// DeleteBook removes the book and every rental that references it. The
// removed rentals do not give copies back to any book.
func (s *Store) DeleteBook(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nBooks, nRentals := len(s.books), len(s.rentals)
	s.books = slices.DeleteFunc(s.books, func(b Book) bool { return b.ID == id })
	s.rentals = slices.DeleteFunc(s.rentals, func(r Rental) bool { return r.BookID == id })

	if len(s.books) != nBooks {
		if err := s.saveBooks(); err != nil {
			return err
		}
	}
	if len(s.rentals) != nRentals {
		if err := s.saveRentals(); err != nil {
			return err
		}
	}
	s.opts.logger.Debug("book deleted", "id", id, "rentals_removed", nRentals-len(s.rentals))
	return nil
}

// ------------------ Members ------------------

// AddMember appends a new member with a fresh id.
func (s *Store) AddMember(f MemberFields) (Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Member{
		ID:       s.opts.newID(),
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Address:  f.Address,
		JoinDate: f.JoinDate,
	}
	if m.JoinDate.IsZero() {
		m.JoinDate = s.opts.now().UTC()
	}
	s.members = append(s.members, m)
	if err := s.saveMembers(); err != nil {
		return Member{}, err
	}
	s.opts.logger.Debug("member added", "id", m.ID, "email", m.Email)
	return m, nil
}

// UpdateMember merges p into the member with the given id.
func (s *Store) UpdateMember(id string, p MemberPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.memberIndex(id)
	if i < 0 {
		return nil
	}
	m := &s.members[i]
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
	if err := s.saveMembers(); err != nil {
		return err
	}
	s.opts.logger.Debug("member updated", "id", id)
	return nil
}

// DeleteMember removes the member and every rental that references it.
func (s *Store) DeleteMember(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nMembers, nRentals := len(s.members), len(s.rentals)
	s.members = slices.DeleteFunc(s.members, func(m Member) bool { return m.ID == id })
	s.rentals = slices.DeleteFunc(s.rentals, func(r Rental) bool { return r.MemberID == id })

	if len(s.members) != nMembers {
		if err := s.saveMembers(); err != nil {
			return err
		}
	}
	if len(s.rentals) != nRentals {
		if err := s.saveRentals(); err != nil {
			return err
		}
	}
	s.opts.logger.Debug("member deleted", "id", id, "rentals_removed", nRentals-len(s.rentals))
	return nil
}

// ------------------ Rentals ------------------

// AddRental appends a new rental. The status defaults to active, in which
// case one copy of the referenced book is taken (never below zero).
func (s *Store) AddRental(f RentalFields, status ...RentalStatus) (Rental, error) {
	st := StatusActive
	if len(status) > 0 {
		st = status[0]
	}
	if !st.Valid() {
		return Rental{}, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now().UTC()
	r := Rental{
		ID:         s.opts.newID(),
		BookID:     f.BookID,
		MemberID:   f.MemberID,
		RentalDate: f.RentalDate,
		DueDate:    f.DueDate,
		Status:     st,
		Notes:      f.Notes,
	}
	if r.RentalDate.IsZero() {
		r.RentalDate = now
	}
	if r.DueDate.IsZero() {
		r.DueDate = r.RentalDate.Add(s.opts.loanPeriod)
	}
	if st == StatusReturned {
		r.ReturnDate = &now
	}
	s.rentals = append(s.rentals, r)

	booksChanged := false
	if st == StatusActive {
		booksChanged = s.adjustAvailability(r.BookID, -1)
	}
	if err := s.saveRentals(); err != nil {
		return Rental{}, err
	}
	if booksChanged {
		if err := s.saveBooks(); err != nil {
			return Rental{}, err
		}
	}
	s.opts.logger.Debug("rental added", "id", r.ID, "book", r.BookID, "member", r.MemberID, "status", r.Status)
	return cloneRental(r), nil
}

// UpdateRental merges p into the rental with the given id. Moving a rental
// into returned gives its copy back exactly once; moving it back to active
// takes the copy again.
func (s *Store) UpdateRental(id string, p RentalPatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rentalIndex(id)
	if i < 0 {
		return nil
	}
	old := s.rentals[i]
	r := &s.rentals[i]
	if p.DueDate != nil {
		r.DueDate = *p.DueDate
	}
	if p.ReturnDate != nil {
		rd := *p.ReturnDate
		r.ReturnDate = &rd
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}

	booksChanged := false
	switch {
	case old.Status != StatusReturned && r.Status == StatusReturned:
		if r.ReturnDate == nil {
			now := s.opts.now().UTC()
			r.ReturnDate = &now
		}
		booksChanged = s.adjustAvailability(r.BookID, +1)
	case old.Status == StatusReturned && r.Status == StatusActive:
		if p.ReturnDate == nil {
			r.ReturnDate = nil
		}
		booksChanged = s.adjustAvailability(r.BookID, -1)
	}

	if err := s.saveRentals(); err != nil {
		return err
	}
	if booksChanged {
		if err := s.saveBooks(); err != nil {
			return err
		}
	}
	s.opts.logger.Debug("rental updated", "id", id, "from", old.Status, "to", r.Status)
	return nil
}

// DeleteRental removes the rental. Deleting an active rental gives its copy
// back as if it had been returned.
func (s *Store) DeleteRental(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.rentalIndex(id)
	if i < 0 {
		return nil
	}
	removed := s.rentals[i]
	s.rentals = slices.Delete(s.rentals, i, i+1)

	booksChanged := false
	if removed.Status == StatusActive {
		booksChanged = s.adjustAvailability(removed.BookID, +1)
	}
	if err := s.saveRentals(); err != nil {
		return err
	}
	if booksChanged {
		if err := s.saveBooks(); err != nil {
			return err
		}
	}
	s.opts.logger.Debug("rental deleted", "id", id, "status", removed.Status)
	return nil
}

// adjustAvailability moves the book's available count by delta, keeping it
// within [0, TotalCopies]. It reports whether the book exists.
func (s *Store) adjustAvailability(bookID string, delta int) bool {
	i := s.bookIndex(bookID)
	if i < 0 {
		s.opts.logger.Warn("rental references missing book", "book", bookID)
		return false
	}
	b := &s.books[i]
	b.AvailableCopies += delta
	b.clampAvailability()
	return true
}
