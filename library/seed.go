package library

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Seed is the on-disk form of initial users and books:
//
//	{"users": [{"username": "alice", "password": "...", "name": "Alice"}],
//	 "books": [{"title": "Dune", "author": "Frank Herbert", "isbn": "..."}]}
type Seed struct {
	Users []SeedUser `json:"users" validate:"dive"`
	Books []SeedBook `json:"books" validate:"dive"`
}

type SeedUser struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

type SeedBook struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// SeedReport counts what Apply inserted.
type SeedReport struct {
	Users int
	Books int
}

// LoadSeed decodes and validates a seed document.
func LoadSeed(r io.Reader) (Seed, error) {
	var s Seed
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Seed{}, fmt.Errorf("%w: decode: %v", ErrInvalidSeed, err)
	}
	if err := validate.Struct(s); err != nil {
		return Seed{}, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return s, nil
}

// DefaultSeed is a small catalog with one reader and one administrator.
func DefaultSeed() Seed {
	return Seed{
		Users: []SeedUser{
			{Username: "alice", Password: "password123", Name: Ptr("Alice Smith")},
			{Username: "root", Password: "pw", Name: Ptr("Administrator"), IsAdmin: Ptr(true)},
		},
		Books: []SeedBook{
			{Title: "The Great Novel", Author: "J. Doe", ISBN: "12345", IsAvailable: Ptr(true)},
			{Title: "Python Programming", Author: "G. Code", ISBN: "67890", IsAvailable: Ptr(true)},
			{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"},
		},
	}
}

// Apply inserts users, then books, stopping at the first failure. The report
// counts the records inserted before it.
func (s Seed) Apply(ctx context.Context, dst Seeder) (SeedReport, error) {
	var rep SeedReport
	for _, u := range s.Users {
		rec := AccountRecord{
			Username: u.Username,
			Password: Ptr(u.Password),
			Name:     u.Name,
			IsAdmin:  u.IsAdmin,
		}
		if _, err := dst.InsertAccount(ctx, rec); err != nil {
			return rep, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		rep.Users++
	}
	for _, b := range s.Books {
		rec := BookRecord{
			Title:       b.Title,
			Author:      b.Author,
			ISBN:        b.ISBN,
			IsAvailable: b.IsAvailable,
		}
		if _, err := dst.InsertBook(ctx, rec); err != nil {
			return rep, fmt.Errorf("seed book %q: %w", b.Title, err)
		}
		rep.Books++
	}
	return rep, nil
}
