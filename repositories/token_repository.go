package repositories

import (
	"context"

	"cermont/models"
)

type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, family, revoked, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, FALSE, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		token.Token,
		token.UserID,
		token.Family,
		token.ExpiresAt,
		token.IP,
		token.UserAgent,
	).Scan(&token.ID, &token.CreatedAt)
	return mapErr(err)
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, family, revoked, expires_at, COALESCE(ip, ''), COALESCE(user_agent, ''), created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRow(ctx, query, token).Scan(
		&t.ID,
		&t.Token,
		&t.UserID,
		&t.Family,
		&t.Revoked,
		&t.ExpiresAt,
		&t.IP,
		&t.UserAgent,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

// Revoke marks a single token revoked. It reports ErrConflict when the token
// was already revoked by a concurrent refresh.
func (r *TokenRepository) Revoke(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *TokenRepository) RevokeFamily(ctx context.Context, family string) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE family = $1`, family)
	return err
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID int) error {
	_, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`, userID)
	return err
}
