package datastore

import (
	"fmt"
	"strings"
	"time"

	"github.com/itout-datetoya/transfer-tracker/domain/repository"
)

// from未指定時のデフォルト開始時刻
const defaultFromTimestamp = "2000-01-01 00:00:00"

// ORDER BYに使用できるカラムの許可リスト
// カラム名はプレースホルダーにできないため、ここにある値のみ連結する
var sortableColumns = map[string]bool{
	"receiver":  true,
	"sender":    true,
	"amount":    true,
	"timestamp": true,
}

// 期間指定を検証し、未指定の側をデフォルト値で補完
func resolveTimeRange(tr repository.TimeRange) (string, string, error) {
	if tr.From != "" && !IsValidTimestamp(tr.From) {
		return "", "", &repository.ValidationError{Field: "from"}
	}
	if tr.To != "" && !IsValidTimestamp(tr.To) {
		return "", "", &repository.ValidationError{Field: "to"}
	}

	from := defaultFromTimestamp
	if tr.From != "" {
		from = tr.From
	}
	to := time.Now().UTC().Format(time.RFC3339)
	if tr.To != "" {
		to = tr.To
	}
	return from, to, nil
}

// LIMIT/OFFSET句を付与
// 0以下は未指定扱いで句自体を付与しない
func appendPageClauses(query string, args []interface{}, page repository.PageOpts) (string, []interface{}) {
	if page.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, page.Limit)
	}
	if page.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, page.Offset)
	}
	return query, args
}

// 送金イベント取得クエリを組み立てる
// 期間はプレースホルダー、整列カラムは許可リストの値のみ連結
func buildTransfersQuery(from, to, sort, direction string, page repository.PageOpts) (string, []interface{}) {
	query := `
		SELECT id, sender, receiver, amount, timestamp
		FROM transfers
		WHERE timestamp >= ? AND timestamp <= ?
	`
	args := []interface{}{from, to}

	if sortableColumns[sort] {
		dir := "ASC"
		if strings.EqualFold(direction, "DESC") {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", sort, dir)
	}

	return appendPageClauses(query, args, page)
}

// アドレス別合計量の集計クエリを組み立てる
// 1件の送金を送信側と受信側の両方に計上するため、両面をUNION ALLで結合
func buildTopAccountsQuery(from, to string, page repository.PageOpts) (string, []interface{}) {
	query := `
		SELECT address, SUM(CAST(amount AS numeric)) AS total_volume
		FROM (
			SELECT sender AS address, amount
			FROM transfers
			WHERE timestamp >= ? AND timestamp <= ?
			UNION ALL
			SELECT receiver AS address, amount
			FROM transfers
			WHERE timestamp >= ? AND timestamp <= ?
		) AS combined_addresses
		GROUP BY address
		ORDER BY total_volume DESC
	`
	args := []interface{}{from, to, from, to}

	return appendPageClauses(query, args, page)
}
