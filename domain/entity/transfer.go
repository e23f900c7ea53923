package entity

import "time"

// オンチェーンで観測した送金イベント1件
// 金額は精度を保つため文字列のまま保持する
type Transfer struct {
	ID        int64     `db:"id" json:"id"`
	Sender    string    `db:"sender" json:"sender"`
	Receiver  string    `db:"receiver" json:"receiver"`
	Amount    string    `db:"amount" json:"amount"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// アドレスごとの送受信合計量
type AccountVolume struct {
	Address     string `db:"address" json:"address"`
	TotalVolume string `db:"total_volume" json:"total_volume"`
}

// 全期間の送金総量
// 1件も記録がない場合はnull
type TotalVolume struct {
	TotalAmount *string `db:"total_amount" json:"total_amount"`
}
