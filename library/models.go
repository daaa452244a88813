package library

import "time"

// RentalStatus is the stored lifecycle state of a rental.
type RentalStatus string

const (
	StatusActive   RentalStatus = "active"
	StatusReturned RentalStatus = "returned"
	// StatusOverdue is never stored. It is what DisplayStatus reports for an
	// active rental past its due date.
	StatusOverdue RentalStatus = "overdue"
)

// Valid reports whether s may be stored on a rental.
func (s RentalStatus) Valid() bool {
	return s == StatusActive || s == StatusReturned
}

// DefaultLoanPeriod is used when a rental is created without a due date.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Book represents a catalog entry and its copy counts.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	PublishedYear   int       `json:"publishedYear"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
}

// clampAvailability restores 0 <= AvailableCopies <= TotalCopies.
func (b *Book) clampAvailability() {
	if b.TotalCopies < 0 {
		b.TotalCopies = 0
	}
	if b.AvailableCopies > b.TotalCopies {
		b.AvailableCopies = b.TotalCopies
	}
	if b.AvailableCopies < 0 {
		b.AvailableCopies = 0
	}
}

// BookFields are the caller-supplied fields of a new book.
type BookFields struct {
	Title           string
	Author          string
	Genre           string
	PublishedYear   int
	TotalCopies     int
	AvailableCopies int
	Description     string
}

// BookPatch holds the fields to merge into an existing book. Nil fields are
// left untouched.
type BookPatch struct {
	Title           *string
	Author          *string
	Genre           *string
	PublishedYear   *int
	TotalCopies     *int
	AvailableCopies *int
	Description     *string
}

// Member represents a registered library member.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Address  string    `json:"address,omitempty"`
	JoinDate time.Time `json:"joinDate"`
}

// MemberFields are the caller-supplied fields of a new member. A zero
// JoinDate is replaced with the store's current time.
type MemberFields struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	JoinDate time.Time
}

// MemberPatch holds the fields to merge into an existing member.
type MemberPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// Rental records one copy of a book lent to a member. BookID and MemberID
// are plain references; the referenced entities may no longer exist.
type Rental struct {
	ID         string       `json:"id"`
	BookID     string       `json:"bookId"`
	MemberID   string       `json:"memberId"`
	RentalDate time.Time    `json:"rentalDate"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnDate *time.Time   `json:"returnDate,omitempty"`
	Status     RentalStatus `json:"status"`
	Notes      string       `json:"notes,omitempty"`
}

// RentalFields are the caller-supplied fields of a new rental.
type RentalFields struct {
	BookID     string
	MemberID   string
	RentalDate time.Time
	DueDate    time.Time
	Notes      string
}

// RentalPatch holds the fields to merge into an existing rental.
type RentalPatch struct {
	DueDate    *time.Time
	ReturnDate *time.Time
	Status     *RentalStatus
	Notes      *string
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T { return &v }
