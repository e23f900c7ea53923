package datastore

import (
	"context"
	"errors"
	"testing"

	"github.com/itout-datetoya/transfer-tracker/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 期間指定の検証はクエリ実行より前に行われる
// dbがnilでも検証エラーで返ることを確認する
func TestGetTransfersValidatesBeforeQuery(t *testing.T) {
	repo := NewTransferRepository(nil, zap.NewNop())

	_, err := repo.GetTransfers(context.Background(), repository.TimeRange{From: "20230101"}, "", "", repository.PageOpts{})
	require.Error(t, err)

	var validationErr *repository.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "from", validationErr.Field)
}

func TestGetTopAccountsValidatesBeforeQuery(t *testing.T) {
	repo := NewTransferRepository(nil, zap.NewNop())

	_, err := repo.GetTopAccounts(context.Background(), repository.TimeRange{To: "not a timestamp"}, repository.PageOpts{})
	require.Error(t, err)

	var validationErr *repository.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "to", validationErr.Field)
}
