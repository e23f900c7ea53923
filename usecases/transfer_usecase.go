package usecases

import (
	"context"
	"math/big"

	"github.com/itout-datetoya/transfer-tracker/domain/entity"
	"github.com/itout-datetoya/transfer-tracker/domain/gateway"
	"github.com/itout-datetoya/transfer-tracker/domain/repository"

	"go.uber.org/zap"
)

// 送金イベントに関するユースケース
type TransferUsecase struct {
	repo           repository.TransferRepository
	chainGateway   gateway.ChainTransferGateway
	notifier       gateway.TransferNotifier
	alertThreshold *big.Int
	logger         *zap.Logger
}

// 新しいTransferUsecaseを生成
// notifierとalertThresholdはnilの場合は通知を行わない
func NewTransferUsecase(
	repo repository.TransferRepository,
	chainGateway gateway.ChainTransferGateway,
	notifier gateway.TransferNotifier,
	alertThreshold *big.Int,
	logger *zap.Logger,
) *TransferUsecase {
	return &TransferUsecase{
		repo:           repo,
		chainGateway:   chainGateway,
		notifier:       notifier,
		alertThreshold: alertThreshold,
		logger:         logger,
	}
}

// 全期間の送金総量を取得
func (uc *TransferUsecase) GetTotalVolume(ctx context.Context) (*entity.TotalVolume, error) {
	return uc.repo.GetTotalVolume(ctx)
}

// 指定期間内の送受信合計量をアドレスごとに集計して取得
func (uc *TransferUsecase) GetTopAccounts(ctx context.Context, tr repository.TimeRange, page repository.PageOpts) ([]*entity.AccountVolume, error) {
	return uc.repo.GetTopAccounts(ctx, tr, page)
}

// 指定期間内の送金イベントを取得
func (uc *TransferUsecase) GetTransfers(ctx context.Context, tr repository.TimeRange, sort, direction string, page repository.PageOpts) ([]*entity.Transfer, error) {
	return uc.repo.GetTransfers(ctx, tr, sort, direction, page)
}

// ゲートウェイから届く送金イベントを保存し続ける
// チャネルのクローズまたはctxのキャンセルで停止する
func (uc *TransferUsecase) Listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("event listener stopped")
			return
		case event, ok := <-uc.chainGateway.Events():
			if !ok {
				uc.logger.Info("event stream closed")
				return
			}
			uc.processEvent(ctx, event)
		}
	}
}

// 単一の送金イベントを処理するヘルパー関数
// 保存に失敗してもループは継続する (少なくとも1回の配信、重複あり得る)
func (uc *TransferUsecase) processEvent(ctx context.Context, event *gateway.TransferEvent) {
	uc.logger.Info("transfer detected",
		zap.String("sender", event.Sender),
		zap.String("receiver", event.Receiver),
		zap.String("amount", event.Amount.String()),
		zap.String("tx_hash", event.TxHash))

	if _, err := uc.repo.StoreTransfer(ctx, event.Sender, event.Receiver, event.Amount.String()); err != nil {
		uc.logger.Error("failed to store transfer", zap.Error(err))
		return
	}

	// 閾値以上の送金を通知、失敗しても取り込みには影響させない
	if uc.notifier != nil && uc.alertThreshold != nil && event.Amount.Cmp(uc.alertThreshold) >= 0 {
		if err := uc.notifier.NotifyLargeTransfer(ctx, event); err != nil {
			uc.logger.Warn("failed to notify large transfer", zap.Error(err))
		}
	}
}
