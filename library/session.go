package library

import "github.com/google/uuid"

// Session is the single signed-in slot of one client. It is owned by a
// LibraryManager and not shared across managers.
type Session struct {
	id      string
	account *Account
}

func newSession() *Session {
	return &Session{id: uuid.NewString()}
}

// ID correlates log lines of one client session.
func (s *Session) ID() string { return s.id }

func (s *Session) Current() (Account, bool) {
	if s.account == nil {
		return Account{}, false
	}
	return *s.account, true
}

func (s *Session) set(a Account) { s.account = &a }

func (s *Session) clear() { s.account = nil }
