package library_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library-desk/library"
	"library-desk/library/librarytest"
)

func newManager(t *testing.T) (*library.LibraryManager, *librarytest.Gateway) {
	t.Helper()
	gw := librarytest.New()
	return library.NewLibraryManager(gw, zap.NewNop()), gw
}

func addAccount(t *testing.T, gw *librarytest.Gateway, rec library.AccountRecord) library.RecordID {
	t.Helper()
	id, err := gw.InsertAccount(context.Background(), rec)
	require.NoError(t, err)
	return id
}

func addBook(t *testing.T, gw *librarytest.Gateway, title string, available *bool) library.RecordID {
	t.Helper()
	id, err := gw.InsertBook(context.Background(), library.BookRecord{
		Title: title, Author: "Author", ISBN: "isbn-" + title, IsAvailable: available,
	})
	require.NoError(t, err)
	return id
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("password123"), Name: library.Ptr("Alice Smith")})
	addAccount(t, gw, library.AccountRecord{Username: "root", Password: library.Ptr("pw"), IsAdmin: library.Ptr(true)})
	addAccount(t, gw, library.AccountRecord{Username: "ghost"})

	tests := []struct {
		name      string
		username  string
		password  string
		wantOK    bool
		wantAdmin bool
		wantName  string
	}{
		{name: "reader", username: "alice", password: "password123", wantOK: true, wantName: "Alice Smith"},
		{name: "admin without name", username: "root", password: "pw", wantOK: true, wantAdmin: true, wantName: "N/A"},
		{name: "inputs are trimmed", username: "  alice ", password: "password123\n", wantOK: true, wantName: "Alice Smith"},
		{name: "username is case-insensitive", username: "ALICE", password: "password123", wantOK: true, wantName: "Alice Smith"},
		{name: "password is case-sensitive", username: "alice", password: "PASSWORD123"},
		{name: "wrong password", username: "alice", password: "nope"},
		{name: "unknown user", username: "bob", password: "password123"},
		{name: "stored password missing", username: "ghost", password: ""},
		{name: "empty username", username: "   ", password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr.SignOut()

			ok, err := mgr.SignIn(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			acct, signedIn := mgr.CurrentAccount()
			assert.Equal(t, tt.wantOK, signedIn)
			if tt.wantOK {
				assert.Equal(t, tt.wantAdmin, acct.IsAdmin)
				assert.Equal(t, tt.wantName, acct.Name)
				assert.False(t, acct.ID.IsZero())
			}
		})
	}
}

func TestSignIn_FailureKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})

	ok, err := mgr.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mgr.SignIn(ctx, "nobody", "pw")
	require.NoError(t, err)
	assert.False(t, ok)

	acct, signedIn := mgr.CurrentAccount()
	require.True(t, signedIn)
	assert.Equal(t, "alice", acct.Username)
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})

	mgr.SignOut()
	_, signedIn := mgr.CurrentAccount()
	assert.False(t, signedIn)

	ok, err := mgr.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, ok)

	mgr.SignOut()
	_, signedIn = mgr.CurrentAccount()
	assert.False(t, signedIn)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	gw := librarytest.New()
	addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})

	first := library.NewLibraryManager(gw, zap.NewNop())
	second := library.NewLibraryManager(gw, zap.NewNop())

	ok, err := first.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, ok)

	_, signedIn := second.CurrentAccount()
	assert.False(t, signedIn)
}

func TestListAvailableBooks(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	a := addBook(t, gw, "Explicit", library.Ptr(true))
	addBook(t, gw, "Gone", library.Ptr(false))
	c := addBook(t, gw, "Unflagged", nil)

	books, err := mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, a, books[0].ID)
	assert.Equal(t, "Explicit", books[0].Title)
	assert.Equal(t, "isbn-Explicit", books[0].ISBN)
	assert.Equal(t, c, books[1].ID)
	for _, b := range books {
		assert.True(t, b.Available)
	}
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		mgr, gw := newManager(t)
		id := addBook(t, gw, "Dune", library.Ptr(true))

		out, err := mgr.CheckOut(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, library.CheckoutNotSignedIn, out.Status)
		assert.False(t, out.OK())
		assert.Contains(t, out.Message(), "must be signed in")

		rec, _ := gw.Book(id)
		assert.True(t, rec.Available())
	})

	t.Run("flips availability once", func(t *testing.T) {
		mgr, gw := newManager(t)
		addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})
		id := addBook(t, gw, "Dune", nil)

		ok, err := mgr.SignIn(ctx, "alice", "pw")
		require.NoError(t, err)
		require.True(t, ok)

		out, err := mgr.CheckOut(ctx, id)
		require.NoError(t, err)
		assert.True(t, out.OK())
		assert.Equal(t, "alice", out.By)
		assert.Contains(t, out.Message(), "alice")

		again, err := mgr.CheckOut(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, library.CheckoutUnavailable, again.Status)
		assert.Contains(t, again.Message(), "already unavailable or not found")

		rec, _ := gw.Book(id)
		assert.False(t, rec.Available())
	})

	t.Run("unknown id", func(t *testing.T) {
		mgr, gw := newManager(t)
		addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})
		_, err := mgr.SignIn(ctx, "alice", "pw")
		require.NoError(t, err)

		out, err := mgr.CheckOut(ctx, library.NewRecordID("elsewhere", "elsewhere"))
		require.NoError(t, err)
		assert.Equal(t, library.CheckoutUnavailable, out.Status)
	})
}

func TestOfflineGateway(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	addAccount(t, gw, library.AccountRecord{Username: "alice", Password: library.Ptr("pw")})
	id := addBook(t, gw, "Dune", nil)
	gw.Offline = true

	assert.False(t, mgr.Online())

	ok, err := mgr.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.False(t, ok)

	books, err := mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	// A session opened before the store went away still gets a clear outcome.
	gw.Offline = false
	_, err = mgr.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	gw.Offline = true

	out, err := mgr.CheckOut(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, library.CheckoutStorageOffline, out.Status)
}

// TestCheckoutScenario seeds one admin and one book and walks the desk
// through sign-in, listing and checkout.
func TestCheckoutScenario(t *testing.T) {
	ctx := context.Background()
	mgr, gw := newManager(t)
	addAccount(t, gw, library.AccountRecord{Username: "root", Password: library.Ptr("pw"), IsAdmin: library.Ptr(true)})
	dune := addBook(t, gw, "Dune", library.Ptr(true))

	ok, err := mgr.SignIn(ctx, "root", "pw")
	require.NoError(t, err)
	require.True(t, ok)
	acct, _ := mgr.CurrentAccount()
	assert.True(t, acct.IsAdmin)

	books, err := mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, dune, books[0].ID)

	out, err := mgr.CheckOut(ctx, books[0].ID)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Contains(t, out.Message(), "root")

	books, err = mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCheckoutScenario_SQLite(t *testing.T) {
	ctx := context.Background()
	gw := library.OpenDatabase(ctx, filepath.Join(t.TempDir(), "desk.db"), zap.NewNop())
	require.True(t, gw.Connected())
	t.Cleanup(func() { gw.Close(ctx) })

	seed := library.Seed{
		Users: []library.SeedUser{{Username: "root", Password: "pw", IsAdmin: library.Ptr(true)}},
		Books: []library.SeedBook{{Title: "Dune", IsAvailable: library.Ptr(true)}},
	}
	_, err := seed.Apply(ctx, gw)
	require.NoError(t, err)

	mgr := library.NewLibraryManager(gw, zap.NewNop())
	ok, err := mgr.SignIn(ctx, "root", "pw")
	require.NoError(t, err)
	require.True(t, ok)

	books, err := mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	out, err := mgr.CheckOut(ctx, books[0].ID)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Contains(t, out.Message(), "root")

	books, err = mgr.ListAvailableBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}
