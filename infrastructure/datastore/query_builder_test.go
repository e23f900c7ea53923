package datastore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itout-datetoya/transfer-tracker/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimeRangeDefaults(t *testing.T) {
	from, to, err := resolveTimeRange(repository.TimeRange{})
	require.NoError(t, err)

	assert.Equal(t, defaultFromTimestamp, from)
	// toは現在時刻のRFC3339表現
	_, parseErr := time.Parse(time.RFC3339, to)
	assert.NoError(t, parseErr)
}

func TestResolveTimeRangePassthrough(t *testing.T) {
	from, to, err := resolveTimeRange(repository.TimeRange{
		From: "2023-05-01 00:00:00",
		To:   "2023-06-01 00:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2023-05-01 00:00:00", from)
	assert.Equal(t, "2023-06-01 00:00:00", to)
}

func TestResolveTimeRangeInvalidFrom(t *testing.T) {
	_, _, err := resolveTimeRange(repository.TimeRange{From: "20230501"})
	require.Error(t, err)

	var validationErr *repository.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "from", validationErr.Field)
	assert.Contains(t, err.Error(), "from")
}

func TestResolveTimeRangeInvalidTo(t *testing.T) {
	_, _, err := resolveTimeRange(repository.TimeRange{To: "12345"})
	require.Error(t, err)

	var validationErr *repository.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "to", validationErr.Field)
}

func TestBuildTransfersQuerySortAllowList(t *testing.T) {
	from, to := "2023-01-01 00:00:00", "2023-12-31 00:00:00"

	query, args := buildTransfersQuery(from, to, "amount", "DESC", repository.PageOpts{})
	assert.Contains(t, query, "ORDER BY amount DESC")
	assert.Equal(t, []interface{}{from, to}, args)

	// directionは大文字小文字不問
	query, _ = buildTransfersQuery(from, to, "timestamp", "desc", repository.PageOpts{})
	assert.Contains(t, query, "ORDER BY timestamp DESC")

	// DESC以外はすべて昇順
	query, _ = buildTransfersQuery(from, to, "sender", "sideways", repository.PageOpts{})
	assert.Contains(t, query, "ORDER BY sender ASC")
	query, _ = buildTransfersQuery(from, to, "receiver", "", repository.PageOpts{})
	assert.Contains(t, query, "ORDER BY receiver ASC")
}

func TestBuildTransfersQueryRejectsUnknownSort(t *testing.T) {
	// 許可リスト外のカラムは整列しない、directionも無視
	query, args := buildTransfersQuery("a", "b", "bogus; DROP TABLE transfers", "DESC", repository.PageOpts{})
	assert.NotContains(t, query, "ORDER BY")
	assert.NotContains(t, query, "DROP TABLE")
	assert.Equal(t, []interface{}{"a", "b"}, args)
}

func TestBuildTransfersQueryPageGating(t *testing.T) {
	// 0は未指定扱い
	query, args := buildTransfersQuery("a", "b", "", "", repository.PageOpts{Limit: 0, Offset: 0})
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "OFFSET")
	assert.Len(t, args, 2)

	query, args = buildTransfersQuery("a", "b", "", "", repository.PageOpts{Limit: 10, Offset: 5})
	assert.Contains(t, query, "LIMIT ?")
	assert.Contains(t, query, "OFFSET ?")
	assert.Equal(t, []interface{}{"a", "b", 10, 5}, args)

	// offsetのみ指定
	query, args = buildTransfersQuery("a", "b", "", "", repository.PageOpts{Offset: 3})
	assert.NotContains(t, query, "LIMIT")
	assert.Contains(t, query, "OFFSET ?")
	assert.Equal(t, []interface{}{"a", "b", 3}, args)
}

func TestBuildTopAccountsQuery(t *testing.T) {
	from, to := "2023-01-01 00:00:00", "2023-12-31 00:00:00"

	query, args := buildTopAccountsQuery(from, to, repository.PageOpts{})
	// 送信側と受信側の両面に計上する
	assert.Equal(t, 1, strings.Count(query, "UNION ALL"))
	assert.Contains(t, query, "sender AS address")
	assert.Contains(t, query, "receiver AS address")
	assert.Contains(t, query, "GROUP BY address")
	assert.Contains(t, query, "ORDER BY total_volume DESC")
	// 期間は両面それぞれに適用される
	assert.Equal(t, []interface{}{from, to, from, to}, args)
}

func TestBuildTopAccountsQueryPageGating(t *testing.T) {
	query, args := buildTopAccountsQuery("a", "b", repository.PageOpts{Limit: 7})
	assert.Contains(t, query, "LIMIT ?")
	assert.NotContains(t, query, "OFFSET")
	assert.Equal(t, []interface{}{"a", "b", "a", "b", 7}, args)

	query, args = buildTopAccountsQuery("a", "b", repository.PageOpts{})
	assert.NotContains(t, query, "LIMIT")
	assert.Len(t, args, 4)
}
