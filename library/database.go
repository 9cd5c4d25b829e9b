package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Database is the embedded SQLite gateway. It keeps the document shape of
// the `users` and `books` collections: optional fields are nullable columns.
type Database struct {
	db  *sql.DB
	log *zap.Logger

	insertBookStmt    *sql.Stmt
	insertAccountStmt *sql.Stmt
}

var _ StoreGateway = (*Database)(nil)

// OpenDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements. On failure the
// returned Database is disconnected.
func OpenDatabase(ctx context.Context, dbPath string, log *zap.Logger) *Database {
	d := &Database{log: log.Named("sqlite")}
	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		d.log.Error("open database, continuing offline", zap.String("path", dbPath), zap.Error(err))
		return d
	}
	d.db = db
	if err := d.prepareStatements(ctx); err != nil {
		d.log.Error("prepare statements, continuing offline", zap.Error(err))
		d.closeAll()
		return d
	}
	d.log.Info("database ready", zap.String("path", dbPath))
	return d
}

func openSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (d *Database) Connected() bool { return d.db != nil }

// Close releases prepared statements and closes the DB.
func (d *Database) Close(context.Context) error {
	if !d.Connected() {
		return nil
	}
	return d.closeAll()
}

func (d *Database) closeAll() error {
	if d.insertBookStmt != nil {
		d.insertBookStmt.Close()
	}
	if d.insertAccountStmt != nil {
		d.insertAccountStmt.Close()
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL,
            password TEXT,
            name TEXT,
            is_admin BOOLEAN
        );`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username COLLATE NOCASE);`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL DEFAULT '',
            author TEXT NOT NULL DEFAULT '',
            isbn TEXT NOT NULL DEFAULT '',
            is_available BOOLEAN
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements(ctx context.Context) error {
	var err error
	if d.insertBookStmt, err = d.db.PrepareContext(ctx, `INSERT INTO books(title,author,isbn,is_available) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.insertAccountStmt, err = d.db.PrepareContext(ctx, `INSERT INTO users(username,password,name,is_admin) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

func sqliteID(id int64) RecordID {
	return NewRecordID(id, strconv.FormatInt(id, 10))
}

// ---------------------------------------------------------------------------
// Gateway operations
// ---------------------------------------------------------------------------

func (d *Database) FindAccountByUsername(ctx context.Context, username string) (AccountRecord, bool, error) {
	if !d.Connected() {
		return AccountRecord{}, false, nil
	}

	var (
		id       int64
		rec      AccountRecord
		password sql.NullString
		name     sql.NullString
		isAdmin  sql.NullBool
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id,username,password,name,is_admin FROM users WHERE username = ? COLLATE NOCASE ORDER BY id LIMIT 1`,
		username).Scan(&id, &rec.Username, &password, &name, &isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountRecord{}, false, nil
	}
	if err != nil {
		return AccountRecord{}, false, errors.Wrap(err, "find account")
	}

	rec.ID = sqliteID(id)
	if password.Valid {
		rec.Password = Ptr(password.String)
	}
	if name.Valid {
		rec.Name = Ptr(name.String)
	}
	if isAdmin.Valid {
		rec.IsAdmin = Ptr(isAdmin.Bool)
	}
	return rec, true, nil
}

func (d *Database) ListAllBooks(ctx context.Context) ([]BookRecord, error) {
	if !d.Connected() {
		return []BookRecord{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id,title,author,isbn,is_available FROM books ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	defer rows.Close()

	books := []BookRecord{}
	for rows.Next() {
		var (
			id    int64
			rec   BookRecord
			avail sql.NullBool
		)
		if err := rows.Scan(&id, &rec.Title, &rec.Author, &rec.ISBN, &avail); err != nil {
			return nil, errors.Wrap(err, "scan book")
		}
		rec.ID = sqliteID(id)
		if avail.Valid {
			rec.IsAvailable = Ptr(avail.Bool)
		}
		books = append(books, rec)
	}
	return books, errors.Wrap(rows.Err(), "list books")
}

// SetBookAvailability only touches a row whose flag differs from the
// target; an absent flag counts as available.
func (d *Database) SetBookAvailability(ctx context.Context, id RecordID, available bool) (bool, error) {
	if !d.Connected() {
		return false, nil
	}
	key, ok := id.Key().(int64)
	if !ok {
		return false, nil
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE books SET is_available=? WHERE id=? AND COALESCE(is_available,1) != ?`,
		available, key, available)
	if err != nil {
		return false, errors.Wrap(err, "update book availability")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "update book availability")
	}
	return n == 1, nil
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

func (d *Database) InsertAccount(ctx context.Context, rec AccountRecord) (RecordID, error) {
	if !d.Connected() {
		return RecordID{}, ErrStoreOffline
	}
	res, err := d.insertAccountStmt.ExecContext(ctx, rec.Username, rec.Password, rec.Name, rec.IsAdmin)
	if err != nil {
		return RecordID{}, errors.Wrap(err, "insert account")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RecordID{}, errors.Wrap(err, "insert account")
	}
	return sqliteID(id), nil
}

func (d *Database) InsertBook(ctx context.Context, rec BookRecord) (RecordID, error) {
	if !d.Connected() {
		return RecordID{}, ErrStoreOffline
	}
	res, err := d.insertBookStmt.ExecContext(ctx, rec.Title, rec.Author, rec.ISBN, rec.IsAvailable)
	if err != nil {
		return RecordID{}, errors.Wrap(err, "insert book")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RecordID{}, errors.Wrap(err, "insert book")
	}
	return sqliteID(id), nil
}
