// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/draftman/internal/model"
)

// IdeaRepository はアイデアデータの永続化インターフェース。
type IdeaRepository interface {
	// FindByID は指定IDのアイデアを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Idea, error)

	// FindBySourceURL は取り込み元URLでアイデアを検索する。見つからない場合はnilを返す。
	// RSS取り込みの重複排除に使用する。
	FindBySourceURL(ctx context.Context, sourceURL string) (*model.Idea, error)

	// Create はアイデアを作成する。
	Create(ctx context.Context, idea *model.Idea) error

	// List はアイデア一覧を作成日時の降順で返す。
	List(ctx context.Context, limit int) ([]*model.Idea, error)
}

// DestinationRepository は投稿先データの永続化インターフェース。
type DestinationRepository interface {
	// FindByID は指定IDの投稿先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Destination, error)

	// FindByName は名前で投稿先を検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Destination, error)

	// Create は投稿先を作成する。
	Create(ctx context.Context, dest *model.Destination) error

	// Update は投稿先プロフィールを更新する。
	Update(ctx context.Context, dest *model.Destination) error

	// Delete は指定IDの投稿先を削除する。
	Delete(ctx context.Context, id string) error

	// List は全投稿先を名前の昇順で返す。
	List(ctx context.Context) ([]*model.Destination, error)
}

// DraftRepository はドラフトデータの永続化インターフェース。
type DraftRepository interface {
	// FindByID は指定IDのドラフトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Draft, error)

	// Create はドラフトを作成する。
	Create(ctx context.Context, draft *model.Draft) error

	// UpdateStatus はドラフトの状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.DraftStatus) error

	// UpdateSchedule はドラフトの予約投稿日時を更新する。nilで予約解除。
	UpdateSchedule(ctx context.Context, id string, scheduledAt *time.Time) error

	// ListByIdea は指定アイデアに属する全ドラフトを作成日時の昇順で返す。
	// 兄弟ドラフトとの類似度算出に使用する。
	ListByIdea(ctx context.Context, ideaID string) ([]*model.Draft, error)

	// ListByStatus は指定状態のドラフト一覧を作成日時の降順で返す。
	// statusが空の場合は全状態を対象とする。
	ListByStatus(ctx context.Context, status model.DraftStatus, limit int) ([]*model.Draft, error)

	// ListDueForPublish は投稿期限が到来した承認済みドラフトを返す。
	// scheduled_atがNULL（即時投稿可）またはnow以前のものを古い順に最大limit件取得する。
	ListDueForPublish(ctx context.Context, now time.Time, limit int) ([]*model.Draft, error)
}

// HistoryRepository は投稿履歴の永続化インターフェース。
type HistoryRepository interface {
	// Create は投稿履歴を作成する。投稿成功時にのみ呼び出される。
	Create(ctx context.Context, record *model.HistoryRecord) error

	// CountSince は指定時刻以降の全投稿数を返す。全体レート制限の判定に使用する。
	CountSince(ctx context.Context, since time.Time) (int, error)

	// CountByDestinationSince は指定時刻以降の投稿先別投稿数を返す。
	// 投稿先ごとのレート制限の判定に使用する。
	CountByDestinationSince(ctx context.Context, destinationName string, since time.Time) (int, error)

	// ListRecent は投稿履歴を新しい順に最大limit件返す。
	ListRecent(ctx context.Context, limit int) ([]*model.HistoryRecord, error)
}

// CacheRepository は解説キャッシュの永続化インターフェース。
type CacheRepository interface {
	// FindByHash はURLハッシュでキャッシュエントリを取得する。見つからない場合はnilを返す。
	FindByHash(ctx context.Context, urlHash string) (*model.CacheEntry, error)

	// Upsert はキャッシュエントリを冪等にUPSERTする。
	// 同一キーへの同時書き込みは後勝ちとなり、エラーにはならない。
	Upsert(ctx context.Context, entry *model.CacheEntry) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
