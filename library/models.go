package library

// RecordID is the opaque, store-assigned identity of a stored record.
// Gateways mint them; everything above the gateway only compares and passes
// them back.
type RecordID struct {
	key   any
	label string
}

// NewRecordID wraps a store-native key. key must be comparable.
func NewRecordID(key any, label string) RecordID {
	return RecordID{key: key, label: label}
}

// Key returns the store-native key for the gateway that minted the id.
func (id RecordID) Key() any { return id.key }

func (id RecordID) IsZero() bool { return id.key == nil }

func (id RecordID) String() string { return id.label }

// unnamedAccount is shown for accounts stored without a display name.
const unnamedAccount = "N/A"

// AccountRecord is a `users` document as read from storage. Pointer fields
// are nil when the stored document omits them.
type AccountRecord struct {
	ID       RecordID
	Username string
	Password *string
	Name     *string
	IsAdmin  *bool
}

// Admin reports the administrator flag, false when absent.
func (r AccountRecord) Admin() bool { return r.IsAdmin != nil && *r.IsAdmin }

func (r AccountRecord) DisplayName() string {
	if r.Name == nil {
		return unnamedAccount
	}
	return *r.Name
}

// BookRecord is a `books` document as read from storage.
type BookRecord struct {
	ID          RecordID
	Title       string
	Author      string
	ISBN        string
	IsAvailable *bool
}

// Available reports the availability flag, true when absent.
func (r BookRecord) Available() bool { return r.IsAvailable == nil || *r.IsAvailable }

// Book is the typed catalog view handed to callers of LibraryManager.
type Book struct {
	ID        RecordID
	Title     string
	Author    string
	ISBN      string
	Available bool
}

// Account is the signed-in identity.
type Account struct {
	ID       RecordID
	Username string
	Name     string
	IsAdmin  bool
}

func bookFromRecord(r BookRecord) Book {
	return Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Available: r.Available(),
	}
}

func accountFromRecord(r AccountRecord) Account {
	return Account{
		ID:       r.ID,
		Username: r.Username,
		Name:     r.DisplayName(),
		IsAdmin:  r.Admin(),
	}
}

// Ptr returns a pointer to v, for filling optional record fields.
func Ptr[T any](v T) *T { return &v }
