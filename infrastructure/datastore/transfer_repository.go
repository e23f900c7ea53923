package datastore

import (
	"context"
	"time"

	"github.com/itout-datetoya/transfer-tracker/domain/entity"
	"github.com/itout-datetoya/transfer-tracker/domain/repository"
	"github.com/itout-datetoya/transfer-tracker/pkg/retry"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// 1操作あたりのクエリ実行制限時間
const defaultQueryTimeout = 10 * time.Second

// transfersテーブルを初回書き込み前に冪等に作成する
const createTableQuery = `
	CREATE TABLE IF NOT EXISTS transfers (
		id SERIAL PRIMARY KEY,
		sender VARCHAR(255),
		receiver VARCHAR(255),
		amount VARCHAR(255),
		timestamp TIMESTAMP WITH TIME ZONE
	)
`

// TransferRepository インターフェースを実装する構造体
type transferRepository struct {
	db           *sqlx.DB
	logger       *zap.Logger
	queryTimeout time.Duration
	retryConfig  retry.Config
}

// transferRepository の新しいインスタンスを生成
func NewTransferRepository(db *sqlx.DB, logger *zap.Logger) *transferRepository {
	return &transferRepository{
		db:           db,
		logger:       logger,
		queryTimeout: defaultQueryTimeout,
		retryConfig:  retry.DefaultConfig(),
	}
}

// トランザクションを開始
// 一時的な接続障害に備えて回数制限付きでリトライする
func (r *transferRepository) begin(ctx context.Context) (*sqlx.Tx, error) {
	var tx *sqlx.Tx
	err := retry.WithBackoff(ctx, r.retryConfig, r.logger, "begin transaction", func() error {
		var err error
		tx, err = r.db.BeginTxx(ctx, nil)
		return err
	})
	if err != nil {
		return nil, &repository.StoreError{Op: "begin transaction", Cause: err}
	}
	return tx, nil
}

// 送金イベントをトランザクション内で1行保存
// タイムスタンプは保存時刻を記録する
func (r *transferRepository) StoreTransfer(ctx context.Context, sender, receiver, amount string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	// 関数を抜ける際にコミット済みでなければロールバック
	defer tx.Rollback()

	// テーブル作成の失敗はログに記録するのみで書き込みは続行
	if _, err := tx.ExecContext(ctx, createTableQuery); err != nil {
		r.logger.Error("create transfers table", zap.Error(&repository.BootstrapError{Cause: err}))
	}

	query := r.db.Rebind(`
		INSERT INTO transfers (sender, receiver, amount, timestamp)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	if err := tx.QueryRowxContext(ctx, query, sender, receiver, amount, time.Now().UTC()).Scan(&id); err != nil {
		return 0, &repository.StoreError{Op: "store transfer", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &repository.StoreError{Op: "commit transfer", Cause: err}
	}
	return id, nil
}

// 全期間の送金総量を取得
// 1件も記録がなければ総量はnull
func (r *transferRepository) GetTotalVolume(ctx context.Context) (*entity.TotalVolume, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var volume entity.TotalVolume
	query := "SELECT SUM(CAST(amount AS numeric)) AS total_amount FROM transfers"
	if err := tx.GetContext(ctx, &volume, query); err != nil {
		return nil, &repository.StoreError{Op: "query total volume", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &repository.StoreError{Op: "commit total volume", Cause: err}
	}
	return &volume, nil
}

// 指定期間内の送受信合計量をアドレスごとに集計し、合計量の降順で取得
func (r *transferRepository) GetTopAccounts(ctx context.Context, tr repository.TimeRange, page repository.PageOpts) ([]*entity.AccountVolume, error) {
	// クエリ実行前に期間指定を検証
	from, to, err := resolveTimeRange(tr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query, args := buildTopAccountsQuery(from, to, page)
	query = r.db.Rebind(query)

	var volumes []*entity.AccountVolume
	if err := tx.SelectContext(ctx, &volumes, query, args...); err != nil {
		return nil, &repository.StoreError{Op: "query top accounts", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &repository.StoreError{Op: "commit top accounts", Cause: err}
	}
	return volumes, nil
}

// 指定期間内の送金イベントを取得
func (r *transferRepository) GetTransfers(ctx context.Context, tr repository.TimeRange, sort, direction string, page repository.PageOpts) ([]*entity.Transfer, error) {
	// クエリ実行前に期間指定を検証
	from, to, err := resolveTimeRange(tr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query, args := buildTransfersQuery(from, to, sort, direction, page)
	query = r.db.Rebind(query)

	var transfers []*entity.Transfer
	if err := tx.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, &repository.StoreError{Op: "query transfers", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &repository.StoreError{Op: "commit transfers", Cause: err}
	}
	return transfers, nil
}
