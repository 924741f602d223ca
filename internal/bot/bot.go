package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kinokod/internal/catalog"
	"kinokod/internal/config"
	"kinokod/internal/gate"
	"kinokod/internal/report"
	"kinokod/internal/search"
	"kinokod/internal/session"
	"kinokod/internal/storage"
)

// Bot — основная структура бота.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	log      *zap.Logger
	sender   *Sender
	catalog  *catalog.Index
	engine   *search.Engine
	gate     *gate.Aggregator
	ledger   *gate.Ledger
	channels *gate.ChannelStore
	reports  *report.Store
	sessions *session.Manager

	// каналы публикации, меняются админом на лету
	mu               sync.Mutex
	archiveChannelID int64
	codesChannelID   int64
}

// New собирает бота и все его зависимости поверх общего хранилища.
func New(cfg *config.Config, log *zap.Logger, store *storage.Storage) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	log.Info("bot authorized", zap.String("username", api.Self.UserName))

	index := catalog.New(store.DB, log)
	ledger := gate.NewLedger(store.DB, log)
	channels := gate.NewChannelStore(store.DB)

	members := gate.NewCachedMembership(NewTelegramMembership(api), 1024, cfg.MemberCacheTTL)
	agg := gate.NewAggregator(
		gate.NewGate(members, ledger, log),
		channels,
		cfg.AdminIDs,
		cfg.GateCheckTimeout,
		log,
	)

	return &Bot{
		api:              api,
		cfg:              cfg,
		log:              log,
		sender:           NewSender(api, log),
		catalog:          index,
		engine:           search.New(index, log),
		gate:             agg,
		ledger:           ledger,
		channels:         channels,
		reports:          report.NewStore(store.DB),
		sessions:         session.NewManager(),
		archiveChannelID: cfg.ArchiveChannelID,
		codesChannelID:   cfg.CodesChannelID,
	}, nil
}

// Run засевает каналы из конфигурации и запускает long-polling обработку
// обновлений. Блокирует до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.channels.Seed(ctx, b.cfg.RequiredChannels); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	// chat_member не входит в выдачу по умолчанию
	u.AllowedUpdates = []string{"message", "callback_query", "chat_member", "chat_join_request"}
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot started, waiting for updates...")
	for {
		select {
		case <-ctx.Done():
			b.log.Info("shutting down gracefully")
			return nil
		case upd := <-updates:
			// обновления разных пользователей обрабатываются параллельно
			go b.handleUpdate(ctx, upd)
		}
	}
}

// handleUpdate обрабатывает одно обновление.
func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Защита от паники в хендлерах
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in handler", zap.Any("recover", r))
		}
	}()

	switch {
	case upd.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, upd.ChatJoinRequest)
	case upd.ChatMember != nil:
		b.handleMembershipChange(ctx, upd.ChatMember)
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

// handleJoinRequest фиксирует заявку на вступление в приватный канал.
func (b *Bot) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	if err := b.ledger.ApplyJoinRequest(ctx, req.From.ID, req.Chat.ID); err != nil {
		b.log.Error("failed to apply join request",
			zap.Error(err),
			zap.Int64("user_id", req.From.ID),
			zap.Int64("channel_id", req.Chat.ID),
		)
	}
}

// handleMembershipChange применяет событие о смене членства к журналу.
func (b *Bot) handleMembershipChange(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	err := b.ledger.ApplyMembershipChange(ctx,
		upd.NewChatMember.User.ID,
		upd.Chat.ID,
		upd.OldChatMember.Status,
		upd.NewChatMember.Status,
	)
	if err != nil {
		b.log.Error("failed to apply membership change",
			zap.Error(err),
			zap.Int64("user_id", upd.NewChatMember.User.ID),
			zap.Int64("channel_id", upd.Chat.ID),
		)
	}
}

func (b *Bot) archiveChannel() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.archiveChannelID
}

func (b *Bot) setArchiveChannel(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.archiveChannelID = id
}

func (b *Bot) codesChannel() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codesChannelID
}

func (b *Bot) setCodesChannel(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codesChannelID = id
}
