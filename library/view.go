package library

import "time"

// Placeholders shown for references whose entity has been deleted.
const (
	DeletedBookTitle  = "(deleted book)"
	DeletedMemberName = "(deleted member)"
)

// RentalView is a rental joined with the names it references.
type RentalView struct {
	Rental
	BookTitle     string       `json:"bookTitle"`
	MemberName    string       `json:"memberName"`
	DisplayStatus RentalStatus `json:"displayStatus"`
	DaysRemaining int          `json:"daysRemaining"`
}

// Describe resolves r's references, substituting placeholders for missing
// entities.
func (s *Store) Describe(r Rental, now time.Time) RentalView {
	v := RentalView{
		Rental:        r,
		BookTitle:     DeletedBookTitle,
		MemberName:    DeletedMemberName,
		DisplayStatus: DisplayStatus(r, now),
		DaysRemaining: DaysRemaining(r, now),
	}
	if b, ok := s.GetBookByID(r.BookID); ok {
		v.BookTitle = b.Title
	}
	if m, ok := s.GetMemberByID(r.MemberID); ok {
		v.MemberName = m.Name
	}
	return v
}
