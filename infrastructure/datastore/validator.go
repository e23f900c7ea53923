package datastore

import "strings"

// タイムスタンプ文字列の形状チェック
// 「-」と「:」の両方を含む場合のみ許可する
// 暦としての妥当性は検証しない、必要条件のみの緩いゲート
func IsValidTimestamp(timestamp string) bool {
	return strings.Contains(timestamp, "-") && strings.Contains(timestamp, ":")
}
