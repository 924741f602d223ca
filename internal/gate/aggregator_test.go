package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAggregator(t *testing.T, members MembershipClient, admins []int64, channels ...Channel) (*Aggregator, *Ledger) {
	t.Helper()
	db := testDB(t)
	store := NewChannelStore(db)
	require.NoError(t, store.Seed(context.Background(), channels))

	ledger := NewLedger(db, zap.NewNop())
	g := NewGate(members, ledger, zap.NewNop())
	return NewAggregator(g, store, admins, 200*time.Millisecond, zap.NewNop()), ledger
}

func TestEvaluate_AllPassing(t *testing.T) {
	agg, _ := testAggregator(t, staticStatus("member", nil), nil,
		Channel{ChannelID: -1, Username: "@a"},
		Channel{ChannelID: -2, Username: "@b"},
	)

	failing, err := agg.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, failing)
}

func TestEvaluate_FailingChannelReported(t *testing.T) {
	members := &mockMembers{statusFn: func(_ context.Context, channelID, _ int64) (string, error) {
		if channelID == -2 {
			return "left", nil
		}
		return "member", nil
	}}
	agg, _ := testAggregator(t, members, nil,
		Channel{ChannelID: -1, Username: "@a"},
		Channel{ChannelID: -2, Username: "@b"},
	)

	failing, err := agg.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, failing, 1)
	assert.EqualValues(t, -2, failing[0].ChannelID)
}

// Сбой одного канала не прерывает проверку остальных.
func TestEvaluate_ErrorDoesNotAbortSiblings(t *testing.T) {
	members := &mockMembers{statusFn: func(_ context.Context, channelID, _ int64) (string, error) {
		if channelID == -1 {
			return "", errors.New("api down")
		}
		return "member", nil
	}}
	agg, _ := testAggregator(t, members, nil,
		Channel{ChannelID: -1, Username: "@a"},
		Channel{ChannelID: -2, Username: "@b"},
		Channel{ChannelID: -3, Username: "@c"},
	)

	failing, err := agg.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, failing, 1)
	assert.EqualValues(t, -1, failing[0].ChannelID)
}

// Зависшая проверка упирается в свой таймаут и не тащит за собой соседей.
func TestEvaluate_SlowLookupTimesOut(t *testing.T) {
	members := &mockMembers{statusFn: func(ctx context.Context, channelID, _ int64) (string, error) {
		if channelID == -1 {
			select {
			case <-time.After(5 * time.Second):
				return "member", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "member", nil
	}}
	agg, _ := testAggregator(t, members, nil,
		Channel{ChannelID: -1, Username: "@a"},
		Channel{ChannelID: -2, Username: "@b"},
	)

	start := time.Now()
	failing, err := agg.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, failing, 1)
	assert.EqualValues(t, -1, failing[0].ChannelID)
}

func TestEvaluate_AdminBypass(t *testing.T) {
	members := staticStatus("", errors.New("must not be called"))
	agg, _ := testAggregator(t, members, []int64{42},
		Channel{ChannelID: -1, Username: "@a"},
	)

	failing, err := agg.Evaluate(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, failing)
	assert.True(t, agg.IsAdmin(42))
	assert.False(t, agg.IsAdmin(43))
}

func TestEvaluate_MixedPublicPrivate(t *testing.T) {
	agg, ledger := testAggregator(t, staticStatus("member", nil), nil,
		Channel{ChannelID: -1, Username: "@ochiq"},
		Channel{ChannelID: -2, Username: "@yopiq", IsPrivate: true},
	)
	ctx := context.Background()

	// приватный канал без заявки закрывает шлюз
	failing, err := agg.Evaluate(ctx, 7)
	require.NoError(t, err)
	require.Len(t, failing, 1)
	assert.EqualValues(t, -2, failing[0].ChannelID)

	// заявка pending открывает
	require.NoError(t, ledger.ApplyJoinRequest(ctx, 7, -2))
	failing, err = agg.Evaluate(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, failing)
}

func TestEvaluate_NoChannels(t *testing.T) {
	agg, _ := testAggregator(t, staticStatus("member", nil), nil)
	failing, err := agg.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, failing)
}
