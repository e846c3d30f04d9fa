package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/pkg/utils"
)

// ErrStaleAccount is returned by SetToken when the row changed since it was read.
var ErrStaleAccount = errors.New("social account changed concurrently")

type SocialAccountRepository interface {
	// UpsertActive replaces the active account of sa.Platform, or inserts one.
	UpsertActive(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetActiveByPlatform(ctx context.Context, platform models.Platform) (*models.SocialAccount, error)
	// List returns every account without its access token.
	List(ctx context.Context) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	// SetToken stores a new token only if the row is active and still carries expectedExpiry.
	SetToken(ctx context.Context, id int64, expectedExpiry *time.Time, accessToken string, expiry time.Time) error
	// Deactivate reports whether this call flipped the account to inactive.
	Deactivate(ctx context.Context, id int64) (bool, error)
}

type socialAccountRepository struct {
	db     *sql.DB
	cipher *utils.TokenCipher
}

func NewSocialAccountRepository(db *sql.DB, cipher *utils.TokenCipher) SocialAccountRepository {
	return &socialAccountRepository{db: db, cipher: cipher}
}

const socialAccountColumns = `id, platform, external_account_id, display_name, access_token,
	token_expiry, is_active, connected_by, created_at, updated_at`

func (r *socialAccountRepository) UpsertActive(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	sealed, err := r.cipher.Seal(sa.AccessToken)
	if err != nil {
		return 0, fmt.Errorf("sealing access token: %w", err)
	}

	query := `
		INSERT INTO social_accounts (
			platform,
			external_account_id,
			display_name,
			access_token,
			token_expiry,
			is_active,
			connected_by
		)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		ON CONFLICT (platform) WHERE is_active DO UPDATE SET
			external_account_id = EXCLUDED.external_account_id,
			display_name = EXCLUDED.display_name,
			access_token = EXCLUDED.access_token,
			token_expiry = EXCLUDED.token_expiry,
			connected_by = EXCLUDED.connected_by,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		sa.Platform,
		sa.ExternalAccountID,
		sa.DisplayName,
		sealed,
		sa.TokenExpiry,
		sa.ConnectedBy,
	).Scan(&sa.ID, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	sa.IsActive = true
	return sa.ID, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *socialAccountRepository) GetActiveByPlatform(ctx context.Context, platform models.Platform) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1 AND is_active`
	return r.getOne(ctx, query, platform)
}

func (r *socialAccountRepository) getOne(ctx context.Context, query string, args ...any) (*models.SocialAccount, error) {
	sa, err := r.scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) List(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, platform, external_account_id, display_name, token_expiry,
			is_active, connected_by, created_at, updated_at
		FROM social_accounts
		ORDER BY is_active DESC, platform, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		var expiry sql.NullTime
		err := rows.Scan(&sa.ID, &sa.Platform, &sa.ExternalAccountID, &sa.DisplayName, &expiry,
			&sa.IsActive, &sa.ConnectedBy, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sa.TokenExpiry = nullTimePtr(expiry)
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// ListExpiring returns active accounts whose expiry is unknown or not after before.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE is_active AND (token_expiry IS NULL OR token_expiry <= $1)
		ORDER BY token_expiry NULLS FIRST`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := r.scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, expectedExpiry *time.Time, accessToken string, expiry time.Time) error {
	sealed, err := r.cipher.Seal(accessToken)
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}

	// ciphertexts are randomized, so the previous expiry is the compare-and-set key
	query := `
		UPDATE social_accounts
		SET
			access_token = $3,
			token_expiry = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active AND token_expiry IS NOT DISTINCT FROM $2
	`
	result, err := r.db.ExecContext(ctx, query, id, expectedExpiry, sealed, expiry)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return fmt.Errorf("set token for account %d: %w", id, ErrStaleAccount)
	}
	return nil
}

func (r *socialAccountRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE social_accounts
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_active
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *socialAccountRepository) scanAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var sealed string
	var expiry sql.NullTime

	err := row.Scan(&sa.ID, &sa.Platform, &sa.ExternalAccountID, &sa.DisplayName, &sealed,
		&expiry, &sa.IsActive, &sa.ConnectedBy, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}

	token, err := r.cipher.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("opening token of account %d: %w", sa.ID, err)
	}
	sa.AccessToken = token
	sa.TokenExpiry = nullTimePtr(expiry)

	return &sa, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
