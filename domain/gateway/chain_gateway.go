package gateway

import (
	"context"
	"math/big"
)

// コントラクトから観測したTransferイベント
type TransferEvent struct {
	Sender      string
	Receiver    string
	Amount      *big.Int
	TxHash      string
	BlockNumber uint64
}

// チェーン上のTransferイベントの購読を抽象化
// Eventsが返すチャネルは購読停止時にクローズされる
type ChainTransferGateway interface {
	Events() <-chan *TransferEvent
}

// チェーンRPCクライアントの接続ライフサイクル
type ChainClientManager interface {
	Run(ctx context.Context) error
	Stop() error
}

// 大口送金の通知を抽象化
type TransferNotifier interface {
	NotifyLargeTransfer(ctx context.Context, event *TransferEvent) error
}
