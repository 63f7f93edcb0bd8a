package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"holdem-server/pkg/db"
	"holdem-server/pkg/room"

	"github.com/badoux/checkmail"
	"github.com/lib/pq"
	"github.com/synacor/argon2id"
)

const accountColumns = `
accounts.id,
accounts.username,
accounts.email,
accounts.password_hash,
accounts.chips,
accounts.created,
accounts.updated`

const pqDuplicateKeyErrorCode pq.ErrorCode = "23505"

// minPasswordLength is the minimum number of characters in a password
const minPasswordLength = 6

// ErrInvalidUsernameOrPassword is an error for an invalid username or password
var ErrInvalidUsernameOrPassword = errors.New("invalid username and/or password")

// ErrDuplicateKey happens if a user tries to register a taken username or email
var ErrDuplicateKey = errors.New("duplicate key")

// Account is a registered player and their bankroll
type Account struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Chips    int       `json:"chips"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`

	passwordHash string
}

func getAccountByRow(row db.Scanner) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.passwordHash, &a.Chips, &a.Created, &a.Updated); err != nil {
		return nil, err
	}

	return &a, nil
}

// ValidUsername returns an error if the username cannot be registered
func ValidUsername(username string) error {
	if len(username) < 3 || len(username) > 40 {
		return errors.New("username must be between 3 and 40 characters")
	}

	if strings.TrimSpace(username) != username {
		return errors.New("username must not start or end with spaces")
	}

	return nil
}

// Create registers a new account with the starting bankroll
func Create(ctx context.Context, username, email, password string, startingChips int) (*Account, error) {
	if err := ValidUsername(username); err != nil {
		return nil, err
	}

	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		return nil, errors.New("password must be at least 6 characters")
	}

	hashPassword, err := argon2id.DefaultHashPassword(password)
	if err != nil {
		return nil, err
	}

	const query = `
INSERT INTO accounts (username, email, password_hash, chips)
VALUES ($1, $2, $3, $4)
RETURNING ` + accountColumns

	row := db.Instance().QueryRowContext(ctx, query, username, email, hashPassword, startingChips)
	account, err := getAccountByRow(row)
	if err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == pqDuplicateKeyErrorCode {
			return nil, ErrDuplicateKey
		}

		return nil, err
	}

	return account, nil
}

// GetByUsername will return the account for the username
func GetByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE username = $1`

	row := db.Instance().QueryRowContext(ctx, query, username)
	return getAccountByRow(row)
}

// GetByUsernameAndPassword will return the account if the credentials are valid
func GetByUsernameAndPassword(ctx context.Context, username, password string) (*Account, error) {
	account, err := GetByUsername(ctx, username)
	if err != nil {
		if err == sql.ErrNoRows {
			// prevent timing attacks
			_ = argon2id.Compare("", "")
			return nil, ErrInvalidUsernameOrPassword
		}

		return nil, err
	}

	if err := argon2id.Compare(account.passwordHash, password); err != nil {
		return nil, ErrInvalidUsernameOrPassword
	}

	return account, nil
}

// SetPassword will set a new password
func (a *Account) SetPassword(ctx context.Context, password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 6 characters")
	}

	newHash, err := argon2id.DefaultHashPassword(password)
	if err != nil {
		return err
	}

	const query = `
UPDATE accounts
SET password_hash = $1, updated = (NOW() AT TIME ZONE 'UTC')
WHERE id = $2`

	if _, err := db.Instance().ExecContext(ctx, query, newHash, a.ID); err != nil {
		return err
	}

	a.passwordHash = newHash
	return nil
}

// Store adapts the accounts table to the table server's chip persistence
type Store struct{}

var _ room.ChipStore = Store{}

// NewStore returns a ChipStore backed by the accounts table
func NewStore() Store {
	return Store{}
}

// Chips returns the stored bankroll for the username
func (Store) Chips(ctx context.Context, username string) (int, error) {
	account, err := GetByUsername(ctx, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, room.ErrUnknownPlayer
		}

		return 0, err
	}

	return account.Chips, nil
}

// SetChips stores the bankroll for the username
func (Store) SetChips(ctx context.Context, username string, chips int) error {
	const query = `
UPDATE accounts
SET chips = $1, updated = (NOW() AT TIME ZONE 'UTC')
WHERE username = $2`

	_, err := db.Instance().ExecContext(ctx, query, chips, username)
	return err
}
