package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruxlab/labvault/internal/accounting"
)

const repoTimeout = 5 * time.Second

const userColumns = `
id, email, username, contact_no, country, access_level,
my_tests, my_answers, notifications, storage_usage_mb, created_at, updated_at`

// Repository provides access to the users document collection.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a single user document.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ReadAll returns every user document.
func (r *Repository) ReadAll(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at;`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateProfile persists the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE users
SET username = $2, contact_no = $3, country = $4, updated_at = NOW()
WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, p.Username, p.ContactNo, p.Country)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLevel sets the user's access tier.
func (r *Repository) UpdateLevel(ctx context.Context, id uuid.UUID, level int) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET access_level = $2, updated_at = NOW() WHERE id = $1;`, id, level)
	if err != nil {
		return fmt.Errorf("update access level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user document.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateNotifications replaces the user's notification list.
func (r *Repository) UpdateNotifications(ctx context.Context, id uuid.UUID, notifications []Notification) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if notifications == nil {
		notifications = []Notification{}
	}
	data, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET notifications = $2, updated_at = NOW() WHERE id = $1;`, id, data)
	if err != nil {
		return fmt.Errorf("update notifications: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RemoveTestRef drops a test id from both reference maps.
func (r *Repository) RemoveTestRef(ctx context.Context, id uuid.UUID, testID string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE users
SET my_tests = my_tests - $2, my_answers = my_answers - $2, updated_at = NOW()
WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, testID)
	if err != nil {
		return fmt.Errorf("remove test ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// OwnsTest reports whether the user's myTests map references the test.
func (r *Repository) OwnsTest(ctx context.Context, id uuid.UUID, testID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var owns bool
	err := r.pool.QueryRow(ctx, `SELECT my_tests ? $2 FROM users WHERE id = $1;`, id, testID).Scan(&owns)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("check test ownership: %w", err)
	}
	return owns, nil
}

// FindTestOwners returns every user whose myTests map references the test,
// together with all of that user's test ids. The JSONB key-exists operator is
// backed by the GIN index on my_tests.
func (r *Repository) FindTestOwners(ctx context.Context, testID string) ([]accounting.Owner, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, my_tests FROM users WHERE my_tests ? $1;`, testID)
	if err != nil {
		return nil, fmt.Errorf("find test owners: %w", err)
	}
	defer rows.Close()

	var owners []accounting.Owner
	for rows.Next() {
		var id uuid.UUID
		var myTests []byte
		if err := rows.Scan(&id, &myTests); err != nil {
			return nil, fmt.Errorf("scan test owner: %w", err)
		}

		refs := map[string]Annotation{}
		if len(myTests) > 0 {
			if err := json.Unmarshal(myTests, &refs); err != nil {
				return nil, fmt.Errorf("decode myTests for user %s: %w", id, err)
			}
		}

		testIDs := make([]string, 0, len(refs))
		for tid := range refs {
			testIDs = append(testIDs, tid)
		}
		owners = append(owners, accounting.Owner{UserID: id, TestIDs: testIDs})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test owners: %w", err)
	}
	return owners, nil
}

// UpdateStorageUsage applies all recomputed totals in one transaction-backed
// batch: either every user's total updates or none does.
func (r *Repository) UpdateStorageUsage(ctx context.Context, updates []accounting.UsageUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin usage batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE users SET storage_usage_mb = $2, updated_at = NOW() WHERE id = $1;`,
			u.UserID, u.SizeMB)
	}

	results := tx.SendBatch(ctx, batch)
	for range updates {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("queue usage update: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("flush usage batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit usage batch: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var myTests, myAnswers, notifications []byte

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.ContactNo,
		&u.Country,
		&u.AccessLevel,
		&myTests,
		&myAnswers,
		&notifications,
		&u.StorageUsageMB,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	u.MyTests = map[string]Annotation{}
	if len(myTests) > 0 {
		if err := json.Unmarshal(myTests, &u.MyTests); err != nil {
			return User{}, fmt.Errorf("decode myTests: %w", err)
		}
	}
	u.MyAnswers = map[string]Annotation{}
	if len(myAnswers) > 0 {
		if err := json.Unmarshal(myAnswers, &u.MyAnswers); err != nil {
			return User{}, fmt.Errorf("decode myAnswers: %w", err)
		}
	}
	u.Notifications = []Notification{}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &u.Notifications); err != nil {
			return User{}, fmt.Errorf("decode notifications: %w", err)
		}
	}
	return u, nil
}
