package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	domain_gateway "github.com/itout-datetoya/transfer-tracker/domain/gateway"
	"github.com/itout-datetoya/transfer-tracker/infrastructure/datastore"
	"github.com/itout-datetoya/transfer-tracker/infrastructure/gateway"
	if_http "github.com/itout-datetoya/transfer-tracker/interfaces/http"
	"github.com/itout-datetoya/transfer-tracker/usecases"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Avalanche C-Chain上のUSDCコントラクト
const defaultContractAddress = "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"
const defaultRPCURL = "wss://api.avax.network/ext/bc/C/ws"

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 設定の読み込み
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	rpcURL := getenv("RPC_WS_URL", defaultRPCURL)
	contractAddress := getenv("CONTRACT_ADDRESS", defaultContractAddress)
	serverPort := getenv("SERVER_PORT", "8080")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName)

	// データベース接続の初期化
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 依存性の注入 (DI)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transferRepo := datastore.NewTransferRepository(db, logger)
	chainGateway := gateway.NewChainGateway(rpcURL, contractAddress, logger)

	// 通知設定がある場合のみ大口送金アラートを有効化
	notifier, alertThreshold := buildNotifier(logger)

	transferUsecase := usecases.NewTransferUsecase(transferRepo, chainGateway, notifier, alertThreshold, logger)
	transferHandler := if_http.NewTransferHandler(transferUsecase, logger)

	// ログ購読を開始
	if err := chainGateway.Run(ctx); err != nil {
		logger.Fatal("failed to run chain gateway", zap.Error(err))
	}
	logger.Info("chain gateway connected",
		zap.String("rpc_url", rpcURL),
		zap.String("contract", contractAddress))

	// イベントの取り込みを開始
	go transferUsecase.Listen(ctx)

	// ルーターとHTTPサーバーのセットアップ
	router := if_http.NewRouter(transferHandler)
	srv := &http.Server{
		Addr:    ":" + serverPort,
		Handler: router,
	}

	// HTTPサーバーを起動
	go func() {
		logger.Info("server starting", zap.String("port", serverPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// シャットダウン処理
	<-ctx.Done() // SIGINT/SIGTERM を待機
	stop()
	logger.Info("shutting down server...")

	// HTTPサーバーをグレースフルシャットダウン
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// ログ購読を停止
	if err := chainGateway.Stop(); err != nil {
		logger.Warn("failed to stop chain gateway", zap.Error(err))
	}

	logger.Info("server exiting")
}

// 環境変数から大口送金通知の設定を組み立てる
// 未設定の場合は通知なしで稼働する
func buildNotifier(logger *zap.Logger) (domain_gateway.TransferNotifier, *big.Int) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	thresholdStr := os.Getenv("ALERT_THRESHOLD")
	if botToken == "" || chatIDStr == "" || thresholdStr == "" {
		logger.Info("transfer alert disabled")
		return nil, nil
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		logger.Fatal("invalid TELEGRAM_CHAT_ID", zap.Error(err))
	}
	threshold, ok := new(big.Int).SetString(thresholdStr, 10)
	if !ok {
		logger.Fatal("invalid ALERT_THRESHOLD", zap.String("value", thresholdStr))
	}

	notifier, err := gateway.NewTelegramNotifier(botToken, chatID, logger)
	if err != nil {
		logger.Fatal("failed to create telegram notifier", zap.Error(err))
	}
	return notifier, threshold
}
