// Package librarytest provides an in-memory library.Gateway for tests.
package librarytest

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"library-desk/library"
)

// Gateway keeps accounts and books in insertion order. Set Offline to
// simulate a store that was unreachable at startup.
type Gateway struct {
	Offline bool

	mu       sync.Mutex
	next     int64
	accounts []library.AccountRecord
	books    []library.BookRecord
}

var _ library.StoreGateway = (*Gateway)(nil)

func New() *Gateway { return &Gateway{} }

func (g *Gateway) mint() library.RecordID {
	g.next++
	return library.NewRecordID(memoryKey(g.next), "mem-"+strconv.FormatInt(g.next, 10))
}

type memoryKey int64

func (g *Gateway) Connected() bool { return !g.Offline }

func (g *Gateway) Close(context.Context) error { return nil }

func (g *Gateway) FindAccountByUsername(_ context.Context, username string) (library.AccountRecord, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Offline {
		return library.AccountRecord{}, false, nil
	}
	for _, a := range g.accounts {
		if strings.EqualFold(a.Username, username) {
			return a, true, nil
		}
	}
	return library.AccountRecord{}, false, nil
}

func (g *Gateway) ListAllBooks(context.Context) ([]library.BookRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Offline {
		return []library.BookRecord{}, nil
	}
	out := make([]library.BookRecord, len(g.books))
	copy(out, g.books)
	return out, nil
}

func (g *Gateway) SetBookAvailability(_ context.Context, id library.RecordID, available bool) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Offline {
		return false, nil
	}
	for i, b := range g.books {
		if b.ID != id {
			continue
		}
		if b.Available() == available {
			return false, nil
		}
		g.books[i].IsAvailable = library.Ptr(available)
		return true, nil
	}
	return false, nil
}

func (g *Gateway) InsertAccount(_ context.Context, rec library.AccountRecord) (library.RecordID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Offline {
		return library.RecordID{}, library.ErrStoreOffline
	}
	rec.ID = g.mint()
	g.accounts = append(g.accounts, rec)
	return rec.ID, nil
}

func (g *Gateway) InsertBook(_ context.Context, rec library.BookRecord) (library.RecordID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Offline {
		return library.RecordID{}, library.ErrStoreOffline
	}
	rec.ID = g.mint()
	g.books = append(g.books, rec)
	return rec.ID, nil
}

// Book returns the stored record for id, for asserting on raw flags.
func (g *Gateway) Book(id library.RecordID) (library.BookRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.books {
		if b.ID == id {
			return b, true
		}
	}
	return library.BookRecord{}, false
}
