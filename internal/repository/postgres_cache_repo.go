package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/draftman/internal/model"
)

// PostgresCacheRepo はPostgreSQLを使用した解説キャッシュリポジトリ。
type PostgresCacheRepo struct {
	db *sql.DB
}

// NewPostgresCacheRepo はPostgresCacheRepoを生成する。
func NewPostgresCacheRepo(db *sql.DB) *PostgresCacheRepo {
	return &PostgresCacheRepo{db: db}
}

// FindByHash はURLハッシュでキャッシュエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresCacheRepo) FindByHash(ctx context.Context, urlHash string) (*model.CacheEntry, error) {
	entry := &model.CacheEntry{}

	err := r.db.QueryRowContext(ctx,
		`SELECT url_hash, category, explanation, created_at, updated_at
		 FROM explanation_cache WHERE url_hash = $1`,
		urlHash,
	).Scan(&entry.URLHash, &entry.Category, &entry.Explanation, &entry.CreatedAt, &entry.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("キャッシュエントリの取得に失敗しました: %w", err)
	}

	return entry, nil
}

// Upsert はキャッシュエントリを冪等にUPSERTする。
// 同一キーへの同時書き込みは後勝ちとなり、エラーにはならない。
func (r *PostgresCacheRepo) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO explanation_cache (url_hash, category, explanation, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 ON CONFLICT (url_hash) DO UPDATE SET
		    category = EXCLUDED.category,
		    explanation = EXCLUDED.explanation,
		    updated_at = now()`,
		entry.URLHash, entry.Category, entry.Explanation,
	)
	if err != nil {
		return fmt.Errorf("キャッシュエントリのUPSERTに失敗しました: %w", err)
	}
	return nil
}
