package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

// PostgresDraftRepo はPostgreSQLを使用したドラフトリポジトリ。
type PostgresDraftRepo struct {
	db *sql.DB
}

// NewPostgresDraftRepo はPostgresDraftRepoを生成する。
func NewPostgresDraftRepo(db *sql.DB) *PostgresDraftRepo {
	return &PostgresDraftRepo{db: db}
}

const draftColumns = `id, idea_id, destination_id, content, similarity_score, status,
	scheduled_at, created_at, updated_at`

// scanDraft は1行分のドラフトをスキャンする。
func scanDraft(scan func(dest ...any) error) (*model.Draft, error) {
	draft := &model.Draft{}
	var scheduledAt sql.NullTime

	err := scan(
		&draft.ID, &draft.IdeaID, &draft.DestinationID, &draft.Content,
		&draft.SimilarityScore, &draft.Status, &scheduledAt,
		&draft.CreatedAt, &draft.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledAt.Valid {
		t := scheduledAt.Time
		draft.ScheduledAt = &t
	}
	return draft, nil
}

// FindByID は指定IDのドラフトを取得する。見つからない場合はnilを返す。
func (r *PostgresDraftRepo) FindByID(ctx context.Context, id string) (*model.Draft, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)

	draft, err := scanDraft(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}
	return draft, nil
}

// Create はドラフトを作成する。
func (r *PostgresDraftRepo) Create(ctx context.Context, draft *model.Draft) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drafts (id, idea_id, destination_id, content, similarity_score,
		                     status, scheduled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		draft.ID, draft.IdeaID, draft.DestinationID, draft.Content,
		draft.SimilarityScore, draft.Status, draft.ScheduledAt,
		draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ドラフトの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はドラフトの状態を更新する。
func (r *PostgresDraftRepo) UpdateStatus(ctx context.Context, id string, status model.DraftStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("ドラフト状態の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateSchedule はドラフトの予約投稿日時を更新する。nilで予約解除。
func (r *PostgresDraftRepo) UpdateSchedule(ctx context.Context, id string, scheduledAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET scheduled_at = $2, updated_at = now() WHERE id = $1`,
		id, scheduledAt,
	)
	if err != nil {
		return fmt.Errorf("ドラフト予約日時の更新に失敗しました: %w", err)
	}
	return nil
}

// ListByIdea は指定アイデアに属する全ドラフトを作成日時の昇順で返す。
func (r *PostgresDraftRepo) ListByIdea(ctx context.Context, ideaID string) ([]*model.Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE idea_id = $1 ORDER BY created_at ASC`,
		ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("アイデア別ドラフト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

// ListByStatus は指定状態のドラフト一覧を作成日時の降順で返す。
// statusが空の場合は全状態を対象とする。
func (r *PostgresDraftRepo) ListByStatus(ctx context.Context, status model.DraftStatus, limit int) ([]*model.Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("状態別ドラフト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

// ListDueForPublish は投稿期限が到来した承認済みドラフトを返す。
// scheduled_atがNULL（即時投稿可）またはnow以前のものを古い順に最大limit件取得する。
func (r *PostgresDraftRepo) ListDueForPublish(ctx context.Context, now time.Time, limit int) ([]*model.Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+draftColumns+` FROM drafts
		 WHERE status = 'approved' AND (scheduled_at IS NULL OR scheduled_at <= $1)
		 ORDER BY created_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿対象ドラフトの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

// collectDrafts は結果セットの全行をドラフトとして収集する。
func collectDrafts(rows *sql.Rows) ([]*model.Draft, error) {
	var drafts []*model.Draft
	for rows.Next() {
		draft, err := scanDraft(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ドラフト行のスキャンに失敗しました: %w", err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ドラフト一覧の走査に失敗しました: %w", err)
	}
	return drafts, nil
}
