package library

import "fmt"

type CheckoutStatus int

const (
	CheckoutSucceeded CheckoutStatus = iota
	CheckoutNotSignedIn
	CheckoutUnavailable
	CheckoutStorageOffline
)

func (s CheckoutStatus) String() string {
	switch s {
	case CheckoutSucceeded:
		return "succeeded"
	case CheckoutNotSignedIn:
		return "not_signed_in"
	case CheckoutUnavailable:
		return "unavailable"
	case CheckoutStorageOffline:
		return "storage_offline"
	default:
		return fmt.Sprintf("CheckoutStatus(%d)", int(s))
	}
}

// CheckoutOutcome is the result of one checkout attempt. By is the username
// that performed a successful checkout.
type CheckoutOutcome struct {
	Status CheckoutStatus
	BookID RecordID
	By     string
}

func (o CheckoutOutcome) OK() bool { return o.Status == CheckoutSucceeded }

// Message renders the outcome for the person at the desk.
func (o CheckoutOutcome) Message() string {
	switch o.Status {
	case CheckoutSucceeded:
		return fmt.Sprintf("Book %s checked out successfully by %s.", o.BookID, o.By)
	case CheckoutNotSignedIn:
		return "Error: you must be signed in to check out a book."
	case CheckoutStorageOffline:
		return "Error: the library database is unavailable."
	default:
		return fmt.Sprintf("Error: could not check out book %s: already unavailable or not found.", o.BookID)
	}
}

func (o CheckoutOutcome) String() string { return o.Message() }
