package library

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotAuthenticated  = errors.New("not logged in")
	ErrForbidden         = errors.New("librarian role required")
	ErrNotFound          = errors.New("not found")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrPasswordTooShort  = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidInput      = errors.New("invalid input")
)

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 6

// Backend names accepted by OpenKV.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// ManagerConfig selects and locates the storage backend.
type ManagerConfig struct {
	Backend     string
	DBPath      string
	PostgresDSN string
	LoanPeriod  time.Duration
}

// OpenKV opens the configured backend. The returned func releases it.
func OpenKV(cfg ManagerConfig) (KV, func() error, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		db, err := NewDatabase(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case BackendMemory:
		return NewMemoryKV(), func() error { return nil }, nil
	case BackendPostgres:
		pg, err := NewPostgresKV(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// LibraryManager is a thin façade over the Store and Session, keeping CLI
// code simple. It gates librarian operations on the session's role.
type LibraryManager struct {
	store   *Store
	session *Session
	closeKV func() error
	now     func() time.Time
	logger  *slog.Logger
}

// NewLibraryManager opens the configured backend and loads the library.
func NewLibraryManager(cfg ManagerConfig, opts ...Option) (*LibraryManager, error) {
	kv, closeKV, err := OpenKV(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.LoanPeriod > 0 {
		opts = append(opts, WithLoanPeriod(cfg.LoanPeriod))
	}
	lm, err := NewLibraryManagerWithKV(kv, opts...)
	if err != nil {
		closeKV()
		return nil, err
	}
	lm.closeKV = closeKV
	return lm, nil
}

// NewLibraryManagerWithKV loads the library from an already opened KV.
func NewLibraryManagerWithKV(kv KV, opts ...Option) (*LibraryManager, error) {
	o := newOptions(opts)
	store, err := Open(kv, opts...)
	if err != nil {
		return nil, err
	}
	session, err := OpenSession(kv, opts...)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{
		store:   store,
		session: session,
		closeKV: func() error { return nil },
		now:     o.now,
		logger:  o.logger,
	}, nil
}

// Close releases the backend.
func (lm *LibraryManager) Close() error { return lm.closeKV() }

// Store exposes the entity store for read-only views.
func (lm *LibraryManager) Store() *Store { return lm.store }

// Now is the manager's clock.
func (lm *LibraryManager) Now() time.Time { return lm.now() }

// ------------------ Session ------------------

// Register creates a credential, logs it in and makes sure a member with
// the same email exists so the account can rent books.
func (lm *LibraryManager) Register(email, password, name string, role Role) (bool, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return false, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return false, ErrPasswordTooShort
	}
	if role == RoleAdmin {
		if err := lm.allowAdminRegistration(); err != nil {
			return false, err
		}
	}
	ok, err := lm.session.Register(email, password, name, role)
	if err != nil || !ok {
		return ok, err
	}
	if _, found := lm.store.FindMemberByEmail(email); !found {
		if _, err := lm.store.AddMember(MemberFields{Name: name, Email: email}); err != nil {
			return true, fmt.Errorf("create member profile: %w", err)
		}
	}
	return true, nil
}

// allowAdminRegistration lets a librarian create another librarian, and
// lets the very first account of an empty library be one.
func (lm *LibraryManager) allowAdminRegistration() error {
	if id, ok := lm.session.Current(); ok && id.IsAdmin() {
		return nil
	}
	registered, err := lm.session.HasCredentials()
	if err != nil {
		return err
	}
	if registered {
		return ErrForbidden
	}
	return nil
}

func (lm *LibraryManager) Login(email, password string) (bool, error) {
	return lm.session.Login(strings.TrimSpace(email), password)
}

func (lm *LibraryManager) Logout() error { return lm.session.Logout() }

func (lm *LibraryManager) Whoami() (Identity, bool) { return lm.session.Current() }

func (lm *LibraryManager) requireLogin() (Identity, error) {
	id, ok := lm.session.Current()
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	return id, nil
}

func (lm *LibraryManager) requireAdmin() error {
	id, err := lm.requireLogin()
	if err != nil {
		return err
	}
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// CurrentMember is the member profile of the logged-in identity.
func (lm *LibraryManager) CurrentMember() (Member, error) {
	id, err := lm.requireLogin()
	if err != nil {
		return Member{}, err
	}
	m, ok := lm.store.FindMemberByEmail(id.Email)
	if !ok {
		return Member{}, fmt.Errorf("member profile for %s: %w", id.Email, ErrNotFound)
	}
	return m, nil
}

// UpdateProfile changes the logged-in member's contact details.
func (lm *LibraryManager) UpdateProfile(p MemberPatch) error {
	m, err := lm.CurrentMember()
	if err != nil {
		return err
	}
	// Email is the link between credential and profile.
	p.Email = nil
	return lm.store.UpdateMember(m.ID, p)
}

// ------------------ Book helpers ------------------

func validateBookFields(f BookFields) error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Author) == "" {
		return fmt.Errorf("%w: title and author are required", ErrInvalidInput)
	}
	if f.TotalCopies < 1 {
		return fmt.Errorf("%w: total copies must be at least 1", ErrInvalidInput)
	}
	if f.AvailableCopies < 0 || f.AvailableCopies > f.TotalCopies {
		return fmt.Errorf("%w: available copies must be between 0 and %d", ErrInvalidInput, f.TotalCopies)
	}
	return nil
}

func (lm *LibraryManager) AddBook(f BookFields) (Book, error) {
	if err := lm.requireAdmin(); err != nil {
		return Book{}, err
	}
	if err := validateBookFields(f); err != nil {
		return Book{}, err
	}
	return lm.store.AddBook(f)
}

func (lm *LibraryManager) UpdateBook(id string, p BookPatch) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	return lm.store.UpdateBook(id, p)
}

func (lm *LibraryManager) DeleteBook(id string) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	return lm.store.DeleteBook(id)
}

// Catalog is the member-facing book search. availableOnly drops books with
// no copy on the shelf.
func (lm *LibraryManager) Catalog(term, genre string, availableOnly bool) ([]Book, error) {
	if _, err := lm.requireLogin(); err != nil {
		return nil, err
	}
	if availableOnly {
		return lm.store.AvailableBooks(term, genre), nil
	}
	return lm.store.SearchBooks(term, genre), nil
}

// Book looks up one catalog entry.
func (lm *LibraryManager) Book(id string) (Book, error) {
	if _, err := lm.requireLogin(); err != nil {
		return Book{}, err
	}
	b, ok := lm.store.GetBookByID(id)
	if !ok {
		return Book{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return b, nil
}

// Genres lists the catalog's genres.
func (lm *LibraryManager) Genres() ([]string, error) {
	if _, err := lm.requireLogin(); err != nil {
		return nil, err
	}
	return lm.store.Genres(), nil
}

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(f MemberFields) (Member, error) {
	if err := lm.requireAdmin(); err != nil {
		return Member{}, err
	}
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" {
		return Member{}, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	return lm.store.AddMember(f)
}

// UpdateMember edits a member. A new email is carried over to the member's
// login so the two stay linked.
func (lm *LibraryManager) UpdateMember(id string, p MemberPatch) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email == "" {
			return fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		p.Email = &email
		m, ok := lm.store.GetMemberByID(id)
		if !ok {
			return nil
		}
		if !strings.EqualFold(m.Email, email) {
			if other, found := lm.store.FindMemberByEmail(email); found && other.ID != id {
				return fmt.Errorf("%w: %s belongs to member %s", ErrInvalidInput, email, other.ID)
			}
			if err := lm.session.ChangeEmail(m.Email, email); err != nil {
				if errors.Is(err, ErrEmailInUse) {
					return fmt.Errorf("%w: %w", ErrInvalidInput, err)
				}
				return err
			}
		}
	}
	return lm.store.UpdateMember(id, p)
}

func (lm *LibraryManager) DeleteMember(id string) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	return lm.store.DeleteMember(id)
}

// Member returns a member and their rentals.
func (lm *LibraryManager) Member(id string) (Member, []RentalView, error) {
	if err := lm.requireAdmin(); err != nil {
		return Member{}, nil, err
	}
	m, ok := lm.store.GetMemberByID(id)
	if !ok {
		return Member{}, nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return m, lm.describeAll(lm.store.RentalsForMember(id)), nil
}

func (lm *LibraryManager) Members() ([]Member, error) {
	if err := lm.requireAdmin(); err != nil {
		return nil, err
	}
	return lm.store.Members(), nil
}

// ------------------ Circulation ------------------

// checkRentable verifies the references of a new rental before the store
// takes a copy.
func (lm *LibraryManager) checkRentable(bookID, memberID string) (Book, error) {
	b, ok := lm.store.GetBookByID(bookID)
	if !ok {
		return Book{}, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	if _, ok := lm.store.GetMemberByID(memberID); !ok {
		return Book{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	if b.AvailableCopies <= 0 {
		return Book{}, fmt.Errorf("%q: %w", b.Title, ErrNoCopiesAvailable)
	}
	return b, nil
}

// CheckoutBook records a librarian-issued rental.
func (lm *LibraryManager) CheckoutBook(f RentalFields) (Rental, error) {
	if err := lm.requireAdmin(); err != nil {
		return Rental{}, err
	}
	if _, err := lm.checkRentable(f.BookID, f.MemberID); err != nil {
		return Rental{}, err
	}
	if !f.DueDate.IsZero() && !f.RentalDate.IsZero() && f.DueDate.Before(f.RentalDate) {
		return Rental{}, fmt.Errorf("%w: due date precedes rental date", ErrInvalidInput)
	}
	return lm.store.AddRental(f)
}

// RentBook lends a copy to the logged-in member for the default loan period.
func (lm *LibraryManager) RentBook(bookID, notes string) (Rental, error) {
	m, err := lm.CurrentMember()
	if err != nil {
		return Rental{}, err
	}
	if _, err := lm.checkRentable(bookID, m.ID); err != nil {
		return Rental{}, err
	}
	return lm.store.AddRental(RentalFields{BookID: bookID, MemberID: m.ID, Notes: notes})
}

// ReturnBook marks a rental returned. Members may only return their own.
func (lm *LibraryManager) ReturnBook(rentalID string) (Rental, error) {
	id, err := lm.requireLogin()
	if err != nil {
		return Rental{}, err
	}
	r, ok := lm.store.GetRentalByID(rentalID)
	if !ok {
		return Rental{}, fmt.Errorf("rental %s: %w", rentalID, ErrNotFound)
	}
	if !id.IsAdmin() {
		m, err := lm.CurrentMember()
		if err != nil {
			return Rental{}, err
		}
		if r.MemberID != m.ID {
			return Rental{}, ErrForbidden
		}
	}
	if r.Status == StatusReturned {
		return r, nil
	}
	now := lm.now().UTC()
	if err := lm.store.UpdateRental(rentalID, RentalPatch{Status: Ptr(StatusReturned), ReturnDate: &now}); err != nil {
		return Rental{}, err
	}
	r, _ = lm.store.GetRentalByID(rentalID)
	return r, nil
}

func (lm *LibraryManager) UpdateRental(id string, p RentalPatch) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	return lm.store.UpdateRental(id, p)
}

func (lm *LibraryManager) DeleteRental(id string) error {
	if err := lm.requireAdmin(); err != nil {
		return err
	}
	return lm.store.DeleteRental(id)
}

// Rentals lists rentals for librarians. A non-empty status keeps the
// rentals displayed with it, except that active also takes overdue ones.
func (lm *LibraryManager) Rentals(status RentalStatus) ([]RentalView, error) {
	if err := lm.requireAdmin(); err != nil {
		return nil, err
	}
	var rs []Rental
	switch status {
	case "":
		rs = lm.store.Rentals()
	case StatusActive:
		rs = lm.store.ActiveRentals()
	case StatusOverdue:
		rs = lm.store.OverdueRentals(lm.now())
	case StatusReturned:
		rs = lm.store.ReturnedRentals()
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return lm.describeAll(rs), nil
}

// MyRentals lists the logged-in member's rentals.
func (lm *LibraryManager) MyRentals() ([]RentalView, error) {
	m, err := lm.CurrentMember()
	if err != nil {
		return nil, err
	}
	return lm.describeAll(lm.store.RentalsForMember(m.ID)), nil
}

// Dashboard returns the counters and the five most recent rentals.
func (lm *LibraryManager) Dashboard() (Stats, []RentalView, error) {
	if err := lm.requireAdmin(); err != nil {
		return Stats{}, nil, err
	}
	return lm.store.Stats(lm.now()), lm.describeAll(lm.store.RecentRentals(5)), nil
}

func (lm *LibraryManager) describeAll(rs []Rental) []RentalView {
	now := lm.now()
	out := make([]RentalView, 0, len(rs))
	for _, r := range rs {
		out = append(out, lm.store.Describe(r, now))
	}
	return out
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-36s %-30s %-25s %-15s %d/%d",
		b.ID, Truncate(b.Title, 30), Truncate(b.Author, 25), Truncate(b.Genre, 15), b.AvailableCopies, b.TotalCopies)
}

// Truncate shortens s to at most maxLength runes, marking a cut with "...".
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	r := []rune(s)
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
