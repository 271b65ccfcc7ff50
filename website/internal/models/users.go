package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID             int
	Name           string
	Email          string
	HashedPassword []byte
	Authorised     bool
	Admin          bool
	Created        time.Time
}

type UserModelInterface interface {
	Insert(name, email, password string, admin bool) error
	Authenticate(email, password string) (int, error)
	Exists(id int) (bool, error)
	AdminExists() (bool, error)
}

type UserModel struct {
	DB *sql.DB
}

// Insert adds an authorised operator account. Admin accounts are seeded from
// the operator config file on start-up.
func (m *UserModel) Insert(name, email, password string, admin bool) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	stmt := `INSERT INTO users (username, email, password, authorised, admin, created)
	VALUES (?, ?, ?, 1, ?, ?)`

	_, err = m.DB.Exec(stmt, name, email, string(hashedPassword), admin, time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Authenticate returns the user ID for a matching, authorised account.
func (m *UserModel) Authenticate(email, password string) (int, error) {
	var (
		id             int
		hashedPassword []byte
	)

	stmt := "SELECT id, password FROM users WHERE email = ? AND authorised = 1"
	err := m.DB.QueryRow(stmt, email).Scan(&id, &hashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	err = bcrypt.CompareHashAndPassword(hashedPassword, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	return id, nil
}

func (m *UserModel) Exists(id int) (bool, error) {
	var exists bool
	err := m.DB.QueryRow("SELECT EXISTS(SELECT true FROM users WHERE id = ?)", id).Scan(&exists)
	return exists, err
}

func (m *UserModel) AdminExists() (bool, error) {
	var exists bool
	err := m.DB.QueryRow("SELECT EXISTS(SELECT true FROM users WHERE admin = 1)").Scan(&exists)
	return exists, err
}
