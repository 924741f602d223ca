package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMembership — живая проверка членства через Bot API.
type telegramMembership struct {
	api *tgbotapi.BotAPI
}

func NewTelegramMembership(api *tgbotapi.BotAPI) *telegramMembership {
	return &telegramMembership{api: api}
}

// MemberStatus запрашивает статус пользователя в канале. Клиент Bot API не
// принимает контекст, поэтому запрос выполняется в горутине, а таймаут
// соблюдается через select: просроченный ответ просто выбрасывается.
func (t *telegramMembership) MemberStatus(ctx context.Context, channelID, userID int64) (string, error) {
	type result struct {
		status string
		err    error
	}
	ch := make(chan result, 1)

	go func() {
		member, err := t.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: channelID,
				UserID: userID,
			},
		})
		if err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{status: member.Status}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.status, r.err
	}
}
