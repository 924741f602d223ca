package gate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockMembers — мок живой проверки членства. Счётчик вызовов защищён
// мьютексом: агрегатор опрашивает каналы параллельно.
type mockMembers struct {
	statusFn func(ctx context.Context, channelID, userID int64) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *mockMembers) MemberStatus(ctx context.Context, channelID, userID int64) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.statusFn != nil {
		return m.statusFn(ctx, channelID, userID)
	}
	return "member", nil
}

func (m *mockMembers) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func staticStatus(status string, err error) *mockMembers {
	return &mockMembers{statusFn: func(context.Context, int64, int64) (string, error) {
		return status, err
	}}
}

func TestPublicChannel(t *testing.T) {
	public := Channel{ChannelID: -100, Username: "@kanal"}

	cases := []struct {
		name    string
		members *mockMembers
		want    State
	}{
		{"member passes", staticStatus("member", nil), Subscribed},
		{"creator passes", staticStatus("creator", nil), Subscribed},
		{"left fails", staticStatus("left", nil), NotSubscribed},
		{"kicked fails", staticStatus("kicked", nil), NotSubscribed},
		{"lookup error fails closed", staticStatus("", errors.New("timeout")), NotSubscribed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewGate(c.members, NewLedger(testDB(t), zap.NewNop()), zap.NewNop())
			state := g.Check(context.Background(), public, 7)
			assert.Equal(t, c.want, state)
			assert.Equal(t, c.want.Allows(), state.Allows())
		})
	}
}

func TestPrivateChannel(t *testing.T) {
	private := Channel{ChannelID: -200, Username: "@yopiq", IsPrivate: true}
	ctx := context.Background()

	// живой запрос для приватного канала не выполняется
	members := staticStatus("", errors.New("must not be called"))

	ledger := NewLedger(testDB(t), zap.NewNop())
	g := NewGate(members, ledger, zap.NewNop())

	// нет записи в журнале — шлюз закрыт
	assert.Equal(t, NotChecked, g.Check(ctx, private, 7))
	assert.False(t, g.Check(ctx, private, 7).Allows())
	assert.Zero(t, members.callCount())

	// pending пропускает
	require.NoError(t, ledger.ApplyJoinRequest(ctx, 7, -200))
	state := g.Check(ctx, private, 7)
	assert.Equal(t, RequestPending, state)
	assert.True(t, state.Allows())

	// approved пропускает
	require.NoError(t, ledger.ApplyMembershipChange(ctx, 7, -200, "left", "member"))
	state = g.Check(ctx, private, 7)
	assert.Equal(t, RequestApproved, state)
	assert.True(t, state.Allows())

	// cancelled закрывает
	require.NoError(t, ledger.ApplyMembershipChange(ctx, 7, -200, "member", "left"))
	state = g.Check(ctx, private, 7)
	assert.Equal(t, RequestCancelled, state)
	assert.False(t, state.Allows())
}
