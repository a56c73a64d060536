package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the persistence contract for user accounts. The unique
// email index lives in the storage layer so concurrent registrations
// for the same address cannot both succeed.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	ListAll(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role UserRole) ([]*User, error)
	Stats(ctx context.Context) (*UserStats, error)
}

// UserStats is the aggregate view served to administrators
type UserStats struct {
	TotalUsers   int            `json:"total_users"`
	ActiveUsers  int            `json:"active_users"`
	AdminUsers   int            `json:"admin_users"`
	RegularUsers int            `json:"regular_users"`
	CreatedToday int            `json:"created_today"`
	ByProvider   map[string]int `json:"by_provider"`
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": NormalizeEmail(email)})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByGoogleID(ctx context.Context, googleID string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.google_id = ?", googleID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"google_id": googleID})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx creates a new account. The lookup is best effort only;
// the unique index on email is what actually arbitrates races between
// concurrent registrations.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	if _, err := a.GetByEmailTx(ctx, tx, user.Email); err == nil {
		return nil, ErrUserExists
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return record, nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempts" = "login_attempts" + 1,
			"login_attempt_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, now, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: Updating through the ORM will not reset login_attempt_at
	// back to NULL, so this stays raw SQL.
	now := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"last_login_at" = ?,
			"login_count" = "login_count" + 1,
			"login_attempts" = 0,
			"login_attempt_at" = NULL,
			"updated_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, now, now, user.ID).Exec(ctx)

	return err
}

func (a *users) ListAll(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (a *users) ListByRole(ctx context.Context, role UserRole) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_role = ?", role).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (a *users) Stats(ctx context.Context) (*UserStats, error) {
	stats := &UserStats{ByProvider: map[string]int{}}

	var err error
	if stats.TotalUsers, err = a.db.NewSelect().Model((*User)(nil)).Count(ctx); err != nil {
		return nil, err
	}

	if stats.ActiveUsers, err = a.db.NewSelect().Model((*User)(nil)).
		Where("is_active = ?", true).Count(ctx); err != nil {
		return nil, err
	}

	if stats.AdminUsers, err = a.db.NewSelect().Model((*User)(nil)).
		Where("user_role = ?", RoleAdmin).Count(ctx); err != nil {
		return nil, err
	}

	if stats.RegularUsers, err = a.db.NewSelect().Model((*User)(nil)).
		Where("user_role = ?", RoleUser).Count(ctx); err != nil {
		return nil, err
	}

	midnight := time.Now().Truncate(24 * time.Hour)
	if stats.CreatedToday, err = a.db.NewSelect().Model((*User)(nil)).
		Where("created_at >= ?", midnight).Count(ctx); err != nil {
		return nil, err
	}

	var rows []struct {
		Provider string `bun:"provider"`
		Count    int    `bun:"count"`
	}
	err = a.db.NewSelect().
		Model((*User)(nil)).
		ColumnExpr("provider").
		ColumnExpr("count(*) AS count").
		Group("provider").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats.ByProvider[row.Provider] = row.Count
	}

	return stats, nil
}

// prepareUserDefaults normalizes a record before insert: canonical
// email, derived display name, fresh id, base role/provider.
func prepareUserDefaults(user *User) {
	user.Email = NormalizeEmail(user.Email)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Name == "" {
		user.Name = NameFromEmail(user.Email)
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if user.Provider == "" {
		user.Provider = ProviderPassword
	}
	user.IsActive = true
}
