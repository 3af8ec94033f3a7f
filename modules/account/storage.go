package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/pg"
)

const identityColumns = `id, email, password_hash, provider_links, social_links, display_name, avatar_url, ` +
	`professional_info, stats, is_available_for_hire, token_version, created_at, updated_at`

// Storage is the PostgreSQL auth.IdentityStorage. Provider links and social
// links live in separate jsonb columns; unique indexes on the email and on
// each built-in provider key turn concurrent duplicates into auth.ErrConflict.
type Storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*auth.Identity, error) {
	var (
		identity             auth.Identity
		email                sql.NullString
		links, socials       []byte
		info, stats          []byte
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&identity.ID, &email, &identity.PasswordHash, &links, &socials,
		&identity.DisplayName, &identity.AvatarURL, &info, &stats,
		&identity.IsAvailableForHire, &identity.TokenVersion, &createdAt, &updatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}

	identity.Email = email.String
	identity.CreatedAt = createdAt
	identity.UpdatedAt = updatedAt
	if err := unmarshalColumn(links, &identity.ProviderLinks); err != nil {
		return nil, fmt.Errorf("provider_links: %w", err)
	}
	if err := unmarshalColumn(socials, &identity.SocialLinks); err != nil {
		return nil, fmt.Errorf("social_links: %w", err)
	}
	if err := unmarshalColumn(info, &identity.ProfessionalInfo); err != nil {
		return nil, fmt.Errorf("professional_info: %w", err)
	}
	if err := unmarshalColumn(stats, &identity.Stats); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if identity.ProviderLinks == nil {
		identity.ProviderLinks = make(map[string]string)
	}
	if identity.SocialLinks == nil {
		identity.SocialLinks = make(map[string]string)
	}
	return &identity, nil
}

func unmarshalColumn(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func (s *Storage) GetIdentityByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM creators WHERE id = $1`, id)
	identity, err := scanIdentity(row)
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("failed to get identity by id: %w", err)
	}
	return identity, err
}

func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, auth.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM creators WHERE email = $1`, email)
	identity, err := scanIdentity(row)
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}
	return identity, err
}

func (s *Storage) GetIdentityByProvider(ctx context.Context, provider, subject string) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM creators WHERE provider_links @> jsonb_build_object($1::text, $2::text) LIMIT 1`,
		provider, subject,
	)
	identity, err := scanIdentity(row)
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("failed to get identity by provider: %w", err)
	}
	return identity, err
}

// CreateIdentity inserts identity and fills its timestamps. Links to
// providers without a unique index are checked inside the transaction.
func (s *Storage) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	links, err := json.Marshal(nonNilLinks(identity.ProviderLinks))
	if err != nil {
		return err
	}
	socials, err := json.Marshal(nonNilLinks(identity.SocialLinks))
	if err != nil {
		return err
	}
	info, err := json.Marshal(identity.ProfessionalInfo)
	if err != nil {
		return err
	}
	stats, err := json.Marshal(identity.Stats)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, provider := range slices.Sorted(maps.Keys(identity.ProviderLinks)) {
			taken, err := linkTaken(ctx, tx, provider, identity.ProviderLinks[provider], identity.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %s link already in use", auth.ErrConflict, provider)
			}
		}

		err := tx.QueryRowContext(ctx, `INSERT INTO creators (
			id, email, password_hash, provider_links, social_links, display_name, avatar_url,
			professional_info, stats, is_available_for_hire, token_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
			identity.ID, nullString(identity.Email), nullBytes(identity.PasswordHash), links, socials,
			identity.DisplayName, identity.AvatarURL, info, stats,
			identity.IsAvailableForHire, identity.TokenVersion,
		).Scan(&identity.CreatedAt, &identity.UpdatedAt)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", auth.ErrConflict, pg.ConstraintName(err))
			}
			return fmt.Errorf("failed to insert identity: %w", err)
		}
		return nil
	})
}

func (s *Storage) LinkProvider(ctx context.Context, id uuid.UUID, provider, subject string) (*auth.Identity, error) {
	var identity *auth.Identity
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := linkTaken(ctx, tx, provider, subject, id)
		if err != nil {
			return err
		}
		if taken {
			return auth.ErrConflict
		}

		row := tx.QueryRowContext(ctx, `UPDATE creators
			SET provider_links = provider_links || jsonb_build_object($2::text, $3::text), updated_at = now()
			WHERE id = $1
			RETURNING `+identityColumns, id, provider, subject)
		identity, err = scanIdentity(row)
		switch {
		case err == nil, errors.Is(err, auth.ErrNotFound):
			return err
		case pg.IsDuplicateKeyError(err):
			return fmt.Errorf("%w: %s", auth.ErrConflict, pg.ConstraintName(err))
		default:
			return fmt.Errorf("failed to link provider: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// MergeSocialLinks applies every link in one UPDATE, so a failure leaves the
// column as it was.
func (s *Storage) MergeSocialLinks(ctx context.Context, id uuid.UUID, links map[string]string) (*auth.Identity, error) {
	patch, err := json.Marshal(nonNilLinks(links))
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `UPDATE creators
		SET social_links = social_links || $2::jsonb, updated_at = now()
		WHERE id = $1
		RETURNING `+identityColumns, id, patch)
	identity, err := scanIdentity(row)
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("failed to merge social links: %w", err)
	}
	return identity, err
}

func (s *Storage) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE creators
		SET display_name = COALESCE(NULLIF($2, ''), display_name),
			avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
			updated_at = now()
		WHERE id = $1`, id, displayName, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Storage) IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `UPDATE creators
		SET token_version = token_version + 1, updated_at = now()
		WHERE id = $1
		RETURNING token_version`, id).Scan(&version)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, auth.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment token version: %w", err)
	}
	return version, nil
}

func linkTaken(ctx context.Context, tx *sql.Tx, provider, subject string, self uuid.UUID) (bool, error) {
	var owner uuid.UUID
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM creators WHERE provider_links @> jsonb_build_object($1::text, $2::text) AND id <> $3 LIMIT 1 FOR UPDATE`,
		provider, subject, self,
	).Scan(&owner)
	switch {
	case err == nil:
		return true, nil
	case pg.IsNotFoundError(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check provider link: %w", err)
	}
}

func (s *Storage) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nonNilLinks(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ auth.IdentityStorage = (*Storage)(nil)
