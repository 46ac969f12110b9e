package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

// PostgresHistoryRepo はPostgreSQLを使用した投稿履歴リポジトリ。
type PostgresHistoryRepo struct {
	db *sql.DB
}

// NewPostgresHistoryRepo はPostgresHistoryRepoを生成する。
func NewPostgresHistoryRepo(db *sql.DB) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{db: db}
}

// Create は投稿履歴を作成する。投稿成功時にのみ呼び出される。
func (r *PostgresHistoryRepo) Create(ctx context.Context, record *model.HistoryRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO history (id, destination_name, external_post_id, external_url, posted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.DestinationName, record.ExternalPostID,
		record.ExternalURL, record.PostedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿履歴の作成に失敗しました: %w", err)
	}
	return nil
}

// CountSince は指定時刻以降の全投稿数を返す。
func (r *PostgresHistoryRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE posted_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("投稿数の集計に失敗しました: %w", err)
	}
	return count, nil
}

// CountByDestinationSince は指定時刻以降の投稿先別投稿数を返す。
func (r *PostgresHistoryRepo) CountByDestinationSince(ctx context.Context, destinationName string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE destination_name = $1 AND posted_at >= $2`,
		destinationName, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("投稿先別投稿数の集計に失敗しました: %w", err)
	}
	return count, nil
}

// ListRecent は投稿履歴を新しい順に最大limit件返す。
func (r *PostgresHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*model.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, destination_name, external_post_id, external_url, posted_at
		 FROM history ORDER BY posted_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿履歴一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []*model.HistoryRecord
	for rows.Next() {
		record := &model.HistoryRecord{}
		if err := rows.Scan(
			&record.ID, &record.DestinationName, &record.ExternalPostID,
			&record.ExternalURL, &record.PostedAt,
		); err != nil {
			return nil, fmt.Errorf("投稿履歴行のスキャンに失敗しました: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿履歴一覧の走査に失敗しました: %w", err)
	}

	return records, nil
}
