package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmailInUse is returned when an email change collides with another
// account.
var ErrEmailInUse = errors.New("email already registered")

// Role controls which commands an identity may run.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Identity is the authenticated principal of a session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity may manage the library.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Credential is one entry of the credential store.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c Credential) identity() Identity {
	role := c.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{ID: c.ID, Email: c.Email, Name: c.Name, Role: role}
}

// Session holds the current identity and persists it so that it survives a
// restart. Credentials are re-read from the KV on each login or
// registration.
type Session struct {
	mu      sync.Mutex
	kv      KV
	opts    options
	current *Identity
}

// OpenSession restores the persisted session record, if any.
func OpenSession(kv KV, opts ...Option) (*Session, error) {
	s := &Session{kv: kv, opts: newOptions(opts)}
	var id Identity
	found, err := loadSnapshot(kv, KeySession, &id)
	if err != nil {
		return nil, err
	}
	if found && id.ID != "" {
		s.current = &id
	}
	return s, nil
}

// Current returns the logged-in identity.
func (s *Session) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

func (s *Session) credentials() ([]Credential, error) {
	var creds []Credential
	if _, err := loadSnapshot(s.kv, KeyCredentials, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// Login checks email and password against the credential store. On a
// mismatch it returns false and leaves the current identity alone.
func (s *Session) Login(email, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials()
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(creds, func(c Credential) bool { return strings.EqualFold(c.Email, email) })
	if i < 0 {
		s.opts.logger.Debug("login rejected", "email", email, "reason", "unknown email")
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds[i].PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.opts.logger.Debug("login rejected", "email", email, "reason", "wrong password")
			return false, nil
		}
		return false, fmt.Errorf("compare password: %w", err)
	}
	if err := s.setCurrent(creds[i].identity()); err != nil {
		return false, err
	}
	s.opts.logger.Info("logged in", "email", creds[i].Email, "role", creds[i].Role)
	return true, nil
}

// Register adds a credential and logs it in. It returns false if the email
// is already registered. An empty role registers a regular user.
func (s *Session) Register(email, password, name string, role Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials()
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(creds, func(c Credential) bool { return strings.EqualFold(c.Email, email) }) {
		return false, nil
	}
	if role == "" {
		role = RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	c := Credential{
		ID:           s.opts.newID(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    s.opts.now().UTC(),
	}
	creds = append(creds, c)
	if err := saveSnapshot(s.kv, KeyCredentials, creds); err != nil {
		return false, err
	}
	if err := s.setCurrent(c.identity()); err != nil {
		return false, err
	}
	s.opts.logger.Info("registered", "email", email, "role", role)
	return true, nil
}

// HasCredentials reports whether any account has been registered.
func (s *Session) HasCredentials() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.credentials()
	if err != nil {
		return false, err
	}
	return len(creds) > 0, nil
}

// ChangeEmail moves the account registered under oldEmail to newEmail. The
// current identity follows if it is that account. Nothing happens when no
// account uses oldEmail.
func (s *Session) ChangeEmail(oldEmail, newEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials()
	if err != nil {
		return err
	}
	for _, c := range creds {
		if strings.EqualFold(c.Email, newEmail) && !strings.EqualFold(c.Email, oldEmail) {
			return fmt.Errorf("%w: %s", ErrEmailInUse, newEmail)
		}
	}
	i := slices.IndexFunc(creds, func(c Credential) bool { return strings.EqualFold(c.Email, oldEmail) })
	if i < 0 {
		return nil
	}
	creds[i].Email = newEmail
	if err := saveSnapshot(s.kv, KeyCredentials, creds); err != nil {
		return err
	}
	if s.current != nil && s.current.ID == creds[i].ID {
		if err := s.setCurrent(creds[i].identity()); err != nil {
			return err
		}
	}
	s.opts.logger.Info("account email changed", "from", oldEmail, "to", newEmail)
	return nil
}

// Logout clears the current identity.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.kv.Delete(KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) setCurrent(id Identity) error {
	if err := saveSnapshot(s.kv, KeySession, id); err != nil {
		return err
	}
	s.current = &id
	return nil
}
