// Package model はドメインモデルを定義する。
package model

import "time"

// HistoryRecord は外部プラットフォームへの投稿実績を表す。
// 投稿成功時にのみ作成され、PublishGateのレート制限ウィンドウ算出に使用される。
type HistoryRecord struct {
	ID              string
	DestinationName string
	ExternalPostID  string
	ExternalURL     string
	PostedAt        time.Time
}

// CacheEntry はURL単位で生成済み解説テキストを保持するキャッシュエントリを表す。
// URLハッシュをキーとするプロセス横断の共有状態であり、
// コア処理からは無効化されない（保持期間による削除はクリーンアップジョブが行う）。
type CacheEntry struct {
	URLHash     string
	Category    string
	Explanation string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
