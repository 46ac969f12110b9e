package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/draftman/internal/model"
)

// PostgresIdeaRepo はPostgreSQLを使用したアイデアリポジトリ。
type PostgresIdeaRepo struct {
	db *sql.DB
}

// NewPostgresIdeaRepo はPostgresIdeaRepoを生成する。
func NewPostgresIdeaRepo(db *sql.DB) *PostgresIdeaRepo {
	return &PostgresIdeaRepo{db: db}
}

// FindByID は指定IDのアイデアを取得する。見つからない場合はnilを返す。
func (r *PostgresIdeaRepo) FindByID(ctx context.Context, id string) (*model.Idea, error) {
	idea := &model.Idea{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, core_narrative, technical_depth, goal, source_url, created_at
		 FROM ideas WHERE id = $1`,
		id,
	).Scan(
		&idea.ID, &idea.Title, &idea.CoreNarrative, &idea.TechnicalDepth,
		&idea.Goal, &idea.SourceURL, &idea.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アイデアの取得に失敗しました: %w", err)
	}

	return idea, nil
}

// FindBySourceURL は取り込み元URLでアイデアを検索する。見つからない場合はnilを返す。
func (r *PostgresIdeaRepo) FindBySourceURL(ctx context.Context, sourceURL string) (*model.Idea, error) {
	idea := &model.Idea{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, core_narrative, technical_depth, goal, source_url, created_at
		 FROM ideas WHERE source_url = $1`,
		sourceURL,
	).Scan(
		&idea.ID, &idea.Title, &idea.CoreNarrative, &idea.TechnicalDepth,
		&idea.Goal, &idea.SourceURL, &idea.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取り込み元URLによるアイデアの検索に失敗しました: %w", err)
	}

	return idea, nil
}

// Create はアイデアを作成する。
func (r *PostgresIdeaRepo) Create(ctx context.Context, idea *model.Idea) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ideas (id, title, core_narrative, technical_depth, goal, source_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		idea.ID, idea.Title, idea.CoreNarrative, idea.TechnicalDepth,
		idea.Goal, idea.SourceURL, idea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("アイデアの作成に失敗しました: %w", err)
	}
	return nil
}

// List はアイデア一覧を作成日時の降順で返す。
func (r *PostgresIdeaRepo) List(ctx context.Context, limit int) ([]*model.Idea, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, core_narrative, technical_depth, goal, source_url, created_at
		 FROM ideas ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("アイデア一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ideas []*model.Idea
	for rows.Next() {
		idea := &model.Idea{}
		if err := rows.Scan(
			&idea.ID, &idea.Title, &idea.CoreNarrative, &idea.TechnicalDepth,
			&idea.Goal, &idea.SourceURL, &idea.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("アイデア行のスキャンに失敗しました: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アイデア一覧の走査に失敗しました: %w", err)
	}

	return ideas, nil
}
