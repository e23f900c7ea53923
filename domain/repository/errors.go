package repository

import "fmt"

// from/toタイムスタンプの形式不正
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q timestamp format", e.Field)
}

// クエリ実行またはトランザクション制御の失敗
// メッセージは原因エラーの文言をそのまま伝搬する
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return e.Cause.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// テーブル作成の失敗
// ログに記録するのみで処理は継続する
type BootstrapError struct {
	Cause error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("failed to ensure transfers table: %s", e.Cause.Error())
}

func (e *BootstrapError) Unwrap() error {
	return e.Cause
}
