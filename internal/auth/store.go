package auth

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quizprep/backend/internal/models"
)

// Store owns the users table. Lookups take an explicit includeInactive flag;
// there is no implicit "hide deactivated accounts" filter baked into queries.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userCols = `id, email, name, role, active, password_changed_at, created_at, updated_at`

// CreateUser inserts a new account. The caller passes an already-hashed
// password; role defaults to "user" unless set.
func (s *Store) CreateUser(email, name, hashedPassword string, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	var u models.User
	err := s.db.QueryRow(
		`INSERT INTO users (email, name, password, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+userCols,
		email, name, hashedPassword, role,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByEmail returns the user plus the stored password hash for login checks.
func (s *Store) UserByEmail(email string, includeInactive bool) (*models.User, string, error) {
	query := `SELECT ` + userCols + `, password FROM users WHERE email = $1`
	if !includeInactive {
		query += ` AND active = TRUE`
	}

	var u models.User
	var hash string
	err := s.db.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordChangedAt,
		&u.CreatedAt, &u.UpdatedAt, &hash,
	)
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (s *Store) UserByID(id int64, includeInactive bool) (*models.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE id = $1`
	if !includeInactive {
		query += ` AND active = TRUE`
	}

	var u models.User
	err := s.db.QueryRow(query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordChangedAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) PasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password FROM users WHERE id = $1`, id).Scan(&hash)
	return hash, err
}

// UpdatePassword stores a new hash. password_changed_at is backdated one
// second so a token issued in the same second still fails the freshness check.
func (s *Store) UpdatePassword(id int64, hashedPassword string) error {
	_, err := s.db.Exec(
		`UPDATE users
		 SET password = $1, password_changed_at = NOW() - INTERVAL '1 second',
		     password_reset_token = NULL, password_reset_expires = NULL,
		     updated_at = NOW()
		 WHERE id = $2`,
		hashedPassword, id,
	)
	return err
}

// Deactivate soft-deletes the account (active = false). The row stays so
// historical quiz results keep a valid owner.
func (s *Store) Deactivate(id int64) error {
	res, err := s.db.Exec(`UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetResetToken stores the sha256 of a reset token with its expiry.
func (s *Store) SetResetToken(id int64, hashedToken string, expires time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET password_reset_token = $1, password_reset_expires = $2 WHERE id = $3`,
		hashedToken, expires, id,
	)
	return err
}

func (s *Store) ClearResetToken(id int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL WHERE id = $1`,
		id,
	)
	return err
}

// UserByResetToken resolves an unexpired reset token (already hashed).
func (s *Store) UserByResetToken(hashedToken string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`SELECT `+userCols+` FROM users
		 WHERE password_reset_token = $1 AND password_reset_expires > NOW() AND active = TRUE`,
		hashedToken,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("lookup reset token: %w", err)
	}
	return &u, nil
}
