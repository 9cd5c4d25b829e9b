// Package console is the interactive front desk: a line-oriented loop over
// a LibraryManager.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"library-desk/library"
)

// Desk is the part of library.LibraryManager the console drives.
type Desk interface {
	Online() bool
	SignIn(ctx context.Context, username, password string) (bool, error)
	SignOut()
	CurrentAccount() (library.Account, bool)
	ListAvailableBooks(ctx context.Context) ([]library.Book, error)
	CheckOut(ctx context.Context, id library.RecordID) (library.CheckoutOutcome, error)
}

type Console struct {
	desk         Desk
	sc           *bufio.Scanner
	out          io.Writer
	readPassword func(prompt string) (string, error)

	// listed is the last listing shown; checkout picks from it by position.
	listed []library.Book
}

type Option func(*Console)

// WithPasswordReader replaces the password prompt.
func WithPasswordReader(fn func(prompt string) (string, error)) Option {
	return func(c *Console) { c.readPassword = fn }
}

// New reads commands from in. Passwords are masked when in is a terminal.
func New(desk Desk, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		desk: desk,
		out:  out,
	}
	c.readPassword = c.prompt
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		// term.ReadPassword reads the descriptor directly, so the scanner
		// must not hold bytes past the current line.
		in = byteReader{f}
		c.readPassword = func(prompt string) (string, error) {
			fmt.Fprint(c.out, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(c.out)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	c.sc = bufio.NewScanner(in)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// byteReader returns at most one byte per Read.
type byteReader struct{ r io.Reader }

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return b.r.Read(p)
}

// Run serves commands until "exit" or end of input.
func (c *Console) Run(ctx context.Context) error {
	c.println("Welcome to the Library Management System!")
	if !c.desk.Online() {
		c.println("Warning: the library database is unavailable; sign-in and checkout will not work.")
	}
	c.printHelp()

	for {
		fmt.Fprint(c.out, "\n> ")
		if !c.sc.Scan() {
			return c.sc.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(c.sc.Text()))

		switch cmd {
		case "":
		case "login":
			c.handleLogin(ctx)
		case "logout":
			c.handleLogout()
		case "whoami":
			c.handleWhoAmI()
		case "list books":
			c.handleListBooks(ctx)
		case "checkout":
			c.handleCheckout(ctx)
		case "add book":
			c.handleAdminPlaceholder("Add New Book")
		case "manage users":
			c.handleAdminPlaceholder("Manage Users")
		case "view transactions":
			c.handleAdminPlaceholder("View All Transactions")
		case "help":
			c.printHelp()
		case "exit", "quit":
			c.println("Goodbye!")
			return nil
		default:
			c.println("Unknown command. Type 'help' to see available commands.")
		}
	}
}

func (c *Console) printHelp() {
	c.println("Available commands:")
	c.println("  Session: login, logout, whoami")
	c.println("  Books: list books, checkout")
	c.println("  Admin: add book, manage users, view transactions")
	c.println("  System: help, exit")
}

func (c *Console) handleLogin(ctx context.Context) {
	username, err := c.prompt("Username: ")
	if err != nil {
		return
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		c.printf("Error reading password: %v\n", err)
		return
	}

	ok, err := c.desk.SignIn(ctx, username, password)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	if !ok {
		c.println("Invalid username or password.")
		return
	}

	acct, _ := c.desk.CurrentAccount()
	if acct.IsAdmin {
		c.println("Admin login successful!")
		c.printAdminDashboard(acct)
		return
	}
	c.println("User login successful!")
	c.printf("Welcome, %s (%s)\n", acct.Name, acct.Username)
	c.handleListBooks(ctx)
}

func (c *Console) printAdminDashboard(acct library.Account) {
	c.println("Admin Dashboard")
	c.printf("Logged in as: %s\n", acct.Name)
	c.println("  add book | manage users | view transactions | logout")
}

func (c *Console) handleLogout() {
	c.desk.SignOut()
	c.listed = nil
	c.println("Signed out.")
}

func (c *Console) handleWhoAmI() {
	acct, ok := c.desk.CurrentAccount()
	if !ok {
		c.println("Not signed in.")
		return
	}
	role := "user"
	if acct.IsAdmin {
		role = "admin"
	}
	c.printf("%s (%s), %s\n", acct.Name, acct.Username, role)
}

func (c *Console) handleListBooks(ctx context.Context) {
	books, err := c.desk.ListAvailableBooks(ctx)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.listed = books

	c.println("Available Books")
	if len(books) == 0 {
		c.println("No books available.")
		return
	}
	c.printf("%-4s %-30s %-25s %s\n", "No.", "Title", "Author", "ISBN")
	c.println(strings.Repeat("-", 75))
	for i, b := range books {
		c.printf("%-4d %-30s %-25s %s\n", i+1, truncateString(b.Title, 30), truncateString(b.Author, 25), b.ISBN)
	}
}

func (c *Console) handleCheckout(ctx context.Context) {
	if len(c.listed) == 0 {
		c.println("No books listed. Use 'list books' first.")
		return
	}
	choice, err := c.prompt("Book number: ")
	if err != nil {
		return
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(c.listed) {
		c.println("Please select a book to checkout.")
		return
	}

	out, err := c.desk.CheckOut(ctx, c.listed[n-1].ID)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}
	c.println(out.Message())
	if out.OK() {
		c.handleListBooks(ctx)
	}
}

// Admin tasks are not implemented; the menu entries only confirm access.
func (c *Console) handleAdminPlaceholder(task string) {
	acct, ok := c.desk.CurrentAccount()
	if !ok || !acct.IsAdmin {
		c.println("Admin access required.")
		return
	}
	c.printf("%s is not available yet.\n", task)
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.sc.Text()), nil
}

func (c *Console) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
