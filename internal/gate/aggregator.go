package gate

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator прогоняет шлюз по всем активным каналам и сводит результат в
// одно решение: пустой список непройденных каналов означает доступ.
type Aggregator struct {
	gate     *Gate
	channels *ChannelStore
	admins   map[int64]struct{}
	timeout  time.Duration
	log      *zap.Logger
}

func NewAggregator(gate *Gate, channels *ChannelStore, adminIDs []int64, timeout time.Duration, log *zap.Logger) *Aggregator {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Aggregator{
		gate:     gate,
		channels: channels,
		admins:   admins,
		timeout:  timeout,
		log:      log,
	}
}

// IsAdmin — администраторы минуют шлюз безусловно.
func (a *Aggregator) IsAdmin(userID int64) bool {
	_, ok := a.admins[userID]
	return ok
}

// Evaluate возвращает каналы, по которым пользователь не прошёл шлюз.
// Каналы проверяются параллельно и независимо: сбой одного не прерывает
// остальные, у каждой живой проверки свой таймаут.
func (a *Aggregator) Evaluate(ctx context.Context, userID int64) ([]Channel, error) {
	if a.IsAdmin(userID) {
		return nil, nil
	}

	channels, err := a.channels.Active(ctx)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, nil
	}

	passed := make([]bool, len(channels))
	var g errgroup.Group
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			passed[i] = a.gate.Check(cctx, ch, userID).Allows()
			return nil
		})
	}
	_ = g.Wait() // горутины ошибок не возвращают, сбой закрывает свой канал

	var failing []Channel
	for i, ok := range passed {
		if !ok {
			failing = append(failing, channels[i])
		}
	}

	if len(failing) > 0 {
		a.log.Debug("gate denied",
			zap.Int64("user_id", userID),
			zap.Int("failing_channels", len(failing)),
		)
	}
	return failing, nil
}
