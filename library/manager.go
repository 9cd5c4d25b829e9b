package library

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LibraryManager is the desk behind the console: it owns one Session and
// forwards record access to a Gateway.
type LibraryManager struct {
	gw      Gateway
	session *Session
	log     *zap.Logger
}

// NewLibraryManager starts a manager with an empty session.
func NewLibraryManager(gw Gateway, log *zap.Logger) *LibraryManager {
	s := newSession()
	return &LibraryManager{
		gw:      gw,
		session: s,
		log:     log.Named("desk").With(zap.String("session", s.ID())),
	}
}

// Online reports whether the underlying store was reachable at startup.
func (lm *LibraryManager) Online() bool { return lm.gw.Connected() }

// ------------------ Session ------------------

// SignIn checks username and password (both trimmed) against the stored
// account. The password comparison is exact. Only a successful check
// touches the session; err is reserved for storage failures.
func (lm *LibraryManager) SignIn(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || !lm.gw.Connected() {
		return false, nil
	}

	rec, found, err := lm.gw.FindAccountByUsername(ctx, username)
	if err != nil {
		lm.log.Error("sign in lookup", zap.String("username", username), zap.Error(err))
		return false, err
	}
	if !found || rec.Password == nil || *rec.Password != password {
		lm.log.Info("sign in rejected", zap.String("username", username))
		return false, nil
	}

	acct := accountFromRecord(rec)
	lm.session.set(acct)
	lm.log.Info("signed in", zap.String("username", acct.Username), zap.Bool("admin", acct.IsAdmin))
	return true, nil
}

func (lm *LibraryManager) SignOut() {
	if acct, ok := lm.session.Current(); ok {
		lm.log.Info("signed out", zap.String("username", acct.Username))
	}
	lm.session.clear()
}

func (lm *LibraryManager) CurrentAccount() (Account, bool) { return lm.session.Current() }

// ------------------ Catalog ------------------

// ListAvailableBooks returns books whose availability flag is true or
// absent, in storage order.
func (lm *LibraryManager) ListAvailableBooks(ctx context.Context) ([]Book, error) {
	records, err := lm.gw.ListAllBooks(ctx)
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(records))
	for _, r := range records {
		if r.Available() {
			books = append(books, bookFromRecord(r))
		}
	}
	return books, nil
}

// ------------------ Circulation ------------------

// CheckOut flips a book from available to unavailable. It is one-way: no
// operation in this package makes a book available again.
func (lm *LibraryManager) CheckOut(ctx context.Context, id RecordID) (CheckoutOutcome, error) {
	out := CheckoutOutcome{BookID: id}

	acct, ok := lm.session.Current()
	if !ok {
		out.Status = CheckoutNotSignedIn
		return out, nil
	}
	if !lm.gw.Connected() {
		out.Status = CheckoutStorageOffline
		return out, nil
	}

	modified, err := lm.gw.SetBookAvailability(ctx, id, false)
	if err != nil {
		lm.log.Error("checkout", zap.Stringer("book", id), zap.Error(err))
		return out, err
	}
	if !modified {
		out.Status = CheckoutUnavailable
		lm.log.Info("checkout refused", zap.Stringer("book", id), zap.String("username", acct.Username))
		return out, nil
	}

	out.Status = CheckoutSucceeded
	out.By = acct.Username
	lm.log.Info("checked out", zap.Stringer("book", id), zap.String("username", acct.Username))
	return out, nil
}
