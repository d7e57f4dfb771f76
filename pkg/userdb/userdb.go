// The user database consumed by database auth and the user admin
// commands. The schema mirrors the user table owned by the registration
// subsystem; this package only reads credentials and flips account
// flags, it knows nothing about business entities.
package userdb

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdm"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	is_admin        BOOLEAN NOT NULL DEFAULT 0,
	is_active       BOOLEAN NOT NULL DEFAULT 1,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// User is a row of the users table as exposed to the admin commands.
type User struct {
	ID        int64
	Email     string
	IsAdmin   bool
	IsActive  bool
	CreatedAt time.Time
}

// Store implements rdm.CredentialVerifier backed by sqlite.
type Store struct {
	db  *sql.DB
	log rdm.Logger
}

// Open opens (and if necessary creates) the user database at path. The
// schema is applied on every open so a fresh deployment works without a
// separate migration step.
func Open(logger rdm.Logger, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("user database path must not be empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening user database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing user schema")
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Verify implements rdm.CredentialVerifier. Unknown users and wrong
// passwords are indistinguishable to the caller; disabled accounts are
// a policy rejection.
func (s *Store) Verify(email, password string) (*rdm.Identity, error) {
	var hashed string
	var isAdmin, isActive bool
	err := s.db.QueryRow(
		"SELECT hashed_password, is_admin, is_active FROM users WHERE email = ?",
		email,
	).Scan(&hashed, &isAdmin, &isActive)
	if err == sql.ErrNoRows {
		return nil, rdm.ErrAuthRequired
	}
	if err != nil {
		return nil, errors.Wrap(err, "user lookup failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		s.log.WithField("email", email).Warn("password verification failed")
		return nil, rdm.ErrAuthRequired
	}
	if !isActive {
		s.log.WithField("email", email).Warn("disabled account denied")
		return nil, errors.Wrap(rdm.ErrForbidden, "account disabled")
	}

	return &rdm.Identity{Email: email, IsAdmin: isAdmin}, nil
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Store) Create(email, password string, isAdmin bool) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = s.db.Exec(
		"INSERT INTO users (email, hashed_password, is_admin) VALUES (?, ?, ?)",
		email, string(hashed), isAdmin,
	)
	return errors.Wrapf(err, "creating user %q", email)
}

// List returns all users ordered by id.
func (s *Store) List() ([]User, error) {
	rows, err := s.db.Query(
		"SELECT id, email, is_admin, is_active, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.IsAdmin, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning user row")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetPassword replaces the user's password hash.
func (s *Store) SetPassword(email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return s.update(email,
		"UPDATE users SET hashed_password = ? WHERE email = ?", string(hashed), email)
}

// SetAdmin grants or revokes the admin flag.
func (s *Store) SetAdmin(email string, isAdmin bool) error {
	return s.update(email,
		"UPDATE users SET is_admin = ? WHERE email = ?", isAdmin, email)
}

// SetActive enables or disables the account without deleting it.
func (s *Store) SetActive(email string, isActive bool) error {
	return s.update(email,
		"UPDATE users SET is_active = ? WHERE email = ?", isActive, email)
}

// Delete removes the user entirely.
func (s *Store) Delete(email string) error {
	return s.update(email, "DELETE FROM users WHERE email = ?", email)
}

func (s *Store) update(email, query string, args ...interface{}) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return errors.Wrapf(err, "updating user %q", email)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking update result")
	}
	if n == 0 {
		return errors.Errorf("user %q not found", email)
	}
	return nil
}
