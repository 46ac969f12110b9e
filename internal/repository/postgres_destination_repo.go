package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/draftman/internal/model"
)

// PostgresDestinationRepo はPostgreSQLを使用した投稿先リポジトリ。
type PostgresDestinationRepo struct {
	db *sql.DB
}

// NewPostgresDestinationRepo はPostgresDestinationRepoを生成する。
func NewPostgresDestinationRepo(db *sql.DB) *PostgresDestinationRepo {
	return &PostgresDestinationRepo{db: db}
}

const destinationColumns = `id, name, audience, tone, self_promo_level, preferred_length,
	required_flair, ending_style, banned_phrases, links_allowed, created_at, updated_at`

// scanDestination は1行分の投稿先をスキャンする。
func scanDestination(scan func(dest ...any) error) (*model.Destination, error) {
	dest := &model.Destination{}
	var bannedPhrases pq.StringArray

	err := scan(
		&dest.ID, &dest.Name, &dest.Audience, &dest.Tone, &dest.SelfPromoLevel,
		&dest.PreferredLength, &dest.RequiredFlair, &dest.EndingStyle,
		&bannedPhrases, &dest.LinksAllowed, &dest.CreatedAt, &dest.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dest.BannedPhrases = []string(bannedPhrases)
	return dest, nil
}

// FindByID は指定IDの投稿先を取得する。見つからない場合はnilを返す。
func (r *PostgresDestinationRepo) FindByID(ctx context.Context, id string) (*model.Destination, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+destinationColumns+` FROM destinations WHERE id = $1`, id)

	dest, err := scanDestination(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿先の取得に失敗しました: %w", err)
	}
	return dest, nil
}

// FindByName は名前で投稿先を検索する。見つからない場合はnilを返す。
func (r *PostgresDestinationRepo) FindByName(ctx context.Context, name string) (*model.Destination, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+destinationColumns+` FROM destinations WHERE name = $1`, name)

	dest, err := scanDestination(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("名前による投稿先の検索に失敗しました: %w", err)
	}
	return dest, nil
}

// Create は投稿先を作成する。
func (r *PostgresDestinationRepo) Create(ctx context.Context, dest *model.Destination) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO destinations (id, name, audience, tone, self_promo_level, preferred_length,
		                           required_flair, ending_style, banned_phrases, links_allowed,
		                           created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		dest.ID, dest.Name, dest.Audience, dest.Tone, dest.SelfPromoLevel,
		dest.PreferredLength, dest.RequiredFlair, dest.EndingStyle,
		pq.Array(dest.BannedPhrases), dest.LinksAllowed,
		dest.CreatedAt, dest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿先の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は投稿先プロフィールを更新する。
func (r *PostgresDestinationRepo) Update(ctx context.Context, dest *model.Destination) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE destinations SET
		    name = $2, audience = $3, tone = $4, self_promo_level = $5,
		    preferred_length = $6, required_flair = $7, ending_style = $8,
		    banned_phrases = $9, links_allowed = $10, updated_at = $11
		 WHERE id = $1`,
		dest.ID, dest.Name, dest.Audience, dest.Tone, dest.SelfPromoLevel,
		dest.PreferredLength, dest.RequiredFlair, dest.EndingStyle,
		pq.Array(dest.BannedPhrases), dest.LinksAllowed, dest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿先の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの投稿先を削除する。
func (r *PostgresDestinationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM destinations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("投稿先の削除に失敗しました: %w", err)
	}
	return nil
}

// List は全投稿先を名前の昇順で返す。
func (r *PostgresDestinationRepo) List(ctx context.Context) ([]*model.Destination, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+destinationColumns+` FROM destinations ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("投稿先一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var dests []*model.Destination
	for rows.Next() {
		dest, err := scanDestination(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("投稿先行のスキャンに失敗しました: %w", err)
		}
		dests = append(dests, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿先一覧の走査に失敗しました: %w", err)
	}

	return dests, nil
}
