package repository

import (
	"context"

	"github.com/itout-datetoya/transfer-tracker/domain/entity"
)

// 検索期間の指定
// 空文字はデフォルト期間 (2000-01-01 00:00:00 〜 現在時刻) を意味する
type TimeRange struct {
	From string
	To   string
}

// ページングの指定
// LimitとOffsetは0以下の場合は未指定扱いとなり、句自体を付与しない
type PageOpts struct {
	Limit  int
	Offset int
}

// 送金イベントの永続化
type TransferRepository interface {
	// 観測した送金イベントをトランザクション内で1行保存
	// タイムスタンプは保存時刻を記録する
	StoreTransfer(ctx context.Context, sender, receiver, amount string) (int64, error)

	// 全期間の送金総量を取得
	GetTotalVolume(ctx context.Context) (*entity.TotalVolume, error)

	// 指定期間内の送受信合計量をアドレスごとに集計し、合計量の降順で取得
	// 1件の送金は送信側と受信側の両方に計上される
	GetTopAccounts(ctx context.Context, tr TimeRange, page PageOpts) ([]*entity.AccountVolume, error)

	// 指定期間内の送金イベントを取得
	// sortは receiver|sender|amount|timestamp のみ許可、それ以外は整列しない
	// directionは "desc" (大文字小文字不問) 以外はすべて昇順
	GetTransfers(ctx context.Context, tr TimeRange, sort, direction string, page PageOpts) ([]*entity.Transfer, error)
}
