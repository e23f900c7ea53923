package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/itout-datetoya/transfer-tracker/domain/gateway"
	"github.com/itout-datetoya/transfer-tracker/pkg/retry"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ERC20 Transferイベントのシグネチャハッシュ
var transferEventHash = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// ChainTransferGateway インターフェースを実装する構造体
// 単一コントラクトのTransferログをWebSocket購読で受信する
type chainGateway struct {
	rpcURL      string
	contract    common.Address
	logger      *zap.Logger
	retryConfig retry.Config

	client *ethclient.Client
	events chan *gateway.TransferEvent
	cancel context.CancelFunc
	done   chan struct{}
}

// chainGateway の新しいインスタンスを生成
func NewChainGateway(rpcURL, contractAddress string, logger *zap.Logger) *chainGateway {
	return &chainGateway{
		rpcURL:      rpcURL,
		contract:    common.HexToAddress(contractAddress),
		logger:      logger,
		retryConfig: retry.DefaultConfig(),
		events:      make(chan *gateway.TransferEvent, 64),
		done:        make(chan struct{}),
	}
}

// 観測したTransferイベントのチャネルを返す
// 購読停止時にクローズされる
func (g *chainGateway) Events() <-chan *gateway.TransferEvent {
	return g.events
}

// RPCに接続し、ログ購読を開始
func (g *chainGateway) Run(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, g.rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the chain RPC: %w", err)
	}
	g.client = client

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	go g.subscribeLoop(runCtx)
	return nil
}

// 購読を停止し、接続を閉じる
func (g *chainGateway) Stop() error {
	if g.cancel != nil {
		g.cancel()
		<-g.done
	}
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

// 購読が切れた場合は再購読する受信ループ
func (g *chainGateway) subscribeLoop(ctx context.Context) {
	defer close(g.done)
	defer close(g.events)

	query := ethereum.FilterQuery{
		Addresses: []common.Address{g.contract},
		Topics:    [][]common.Hash{{transferEventHash}},
	}

	for {
		logs := make(chan types.Log, 64)
		var sub ethereum.Subscription
		err := retry.WithBackoff(ctx, g.retryConfig, g.logger, "subscribe transfer logs", func() error {
			var err error
			sub, err = g.client.SubscribeFilterLogs(ctx, query, logs)
			return err
		})
		if err != nil {
			if ctx.Err() == nil {
				g.logger.Error("subscribe transfer logs", zap.Error(err))
			}
			return
		}

		if stopped := g.consume(ctx, sub, logs); stopped {
			return
		}
	}
}

// 購読エラーまたは停止要求までログを受信
// 戻り値は停止要求によって抜けたかどうか
func (g *chainGateway) consume(ctx context.Context, sub ethereum.Subscription, logs <-chan types.Log) bool {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return true
		case err := <-sub.Err():
			g.logger.Warn("log subscription interrupted", zap.Error(err))
			return false
		case vLog := <-logs:
			event, err := parseTransferLog(vLog)
			if err != nil {
				g.logger.Warn("skip unparsable log",
					zap.String("tx_hash", vLog.TxHash.Hex()),
					zap.Error(err))
				continue
			}
			select {
			case g.events <- event:
			case <-ctx.Done():
				return true
			}
		}
	}
}

// Transferログをイベントに変換
// topics[1]/topics[2]がアドレス、dataが金額
func parseTransferLog(vLog types.Log) (*gateway.TransferEvent, error) {
	if len(vLog.Topics) < 3 {
		return nil, fmt.Errorf("unexpected topic count: %d", len(vLog.Topics))
	}
	return &gateway.TransferEvent{
		Sender:      common.HexToAddress(vLog.Topics[1].Hex()).String(),
		Receiver:    common.HexToAddress(vLog.Topics[2].Hex()).String(),
		Amount:      new(big.Int).SetBytes(vLog.Data),
		TxHash:      vLog.TxHash.Hex(),
		BlockNumber: vLog.BlockNumber,
	}, nil
}
