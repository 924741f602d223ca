package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kinokod/internal/catalog"
	"kinokod/internal/gate"
	"kinokod/internal/report"
	"kinokod/internal/session"
)

const listPageSize = 10

// Годы для списка "янги филмлар".
var recentYears = []string{"2020", "2021", "2022", "2023", "2024", "2025"}

var reFirstHashtag = regexp.MustCompile(`#(\w+)`)

// --- Сообщения ---

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.Video != nil || isVideoDocument(msg) {
		b.handleAdminVideo(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// Многошаговые диалоги
	switch st := b.sessions.Get(userID); st.Kind {
	case session.KindAwaitingReportComment:
		b.finishReport(ctx, chatID, userID, st, text)
		return
	case session.KindAwaitingArchiveChannel:
		b.finishSetChannel(chatID, userID, text, true)
		return
	case session.KindAwaitingCodesChannel:
		b.finishSetChannel(chatID, userID, text, false)
		return
	}

	if !b.requireAccess(ctx, userID, chatID) {
		return
	}

	b.handleSearch(ctx, chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sender.Text(chatID,
			"👋 Salom! Film kodini yoki nomini yuboring, men videoni topib beraman.\n\n"+
				"Misol: AVATAR2024 yoki Avatar",
		)
	case "help":
		b.sender.Text(chatID,
			"📖 Qanday foydalanish:\n"+
				"• Kod yuboring — video darhol keladi\n"+
				"• Nom yuboring — mos filmlar ro'yxati chiqadi\n"+
				"• /top — eng ko'p ko'rilganlar\n"+
				"• /recent — yangi filmlar\n"+
				"• /random — tasodifiy film",
		)
	case "random":
		if !b.requireAccess(ctx, userID, chatID) {
			return
		}
		movie, err := b.catalog.Random(ctx)
		if errors.Is(err, catalog.ErrNotFound) {
			b.sender.Text(chatID, "Katalog hozircha bo'sh.")
			return
		}
		if err != nil {
			b.internalError(chatID, err)
			return
		}
		b.sendMovie(ctx, chatID, movie.Code)
	case "top":
		if !b.requireAccess(ctx, userID, chatID) {
			return
		}
		b.sendTopPage(ctx, chatID, 0)
	case "recent":
		if !b.requireAccess(ctx, userID, chatID) {
			return
		}
		b.sendRecentPage(ctx, chatID, 0)
	case "search":
		if !b.requireAccess(ctx, userID, chatID) {
			return
		}
		query := strings.TrimSpace(msg.CommandArguments())
		if query == "" {
			b.sender.Text(chatID, "Qidiruv uchun so'z kiriting: /search Avatar")
			return
		}
		b.handleSearch(ctx, chatID, query)
	case "stats":
		if b.gate.IsAdmin(userID) {
			b.sendStats(ctx, chatID)
		}
	case "delete":
		if b.gate.IsAdmin(userID) {
			b.handleDelete(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
		}
	case "addchannel":
		if b.gate.IsAdmin(userID) {
			b.handleAddChannel(ctx, chatID, msg.CommandArguments())
		}
	case "removechannel":
		if b.gate.IsAdmin(userID) {
			b.handleRemoveChannel(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
		}
	case "setarchive":
		if b.gate.IsAdmin(userID) {
			b.sessions.Set(userID, session.State{Kind: session.KindAwaitingArchiveChannel})
			b.sender.Text(chatID, "Arxiv kanal ID raqamini yuboring:")
		}
	case "setcodes":
		if b.gate.IsAdmin(userID) {
			b.sessions.Set(userID, session.State{Kind: session.KindAwaitingCodesChannel})
			b.sender.Text(chatID, "Kodlar kanali ID raqamini yuboring:")
		}
	default:
		b.sender.Text(chatID, "Noma'lum buyruq. /help")
	}
}

// --- Шлюз подписки ---

// requireAccess пропускает пользователя через шлюз. Закрыт — показывает
// список каналов, на которые нужно подписаться.
func (b *Bot) requireAccess(ctx context.Context, userID, chatID int64) bool {
	failing, err := b.gate.Evaluate(ctx, userID)
	if err != nil {
		b.internalError(chatID, err)
		return false
	}
	if len(failing) == 0 {
		return true
	}
	b.promptJoin(chatID, failing)
	return false
}

func (b *Bot) promptJoin(chatID int64, failing []gate.Channel) {
	var rows [][]tgbotapi.InlineKeyboardButton
	lines := []string{"📢 Botdan foydalanish uchun quyidagi kanallarga obuna bo'ling:", ""}

	for _, ch := range failing {
		name := ch.Title
		if name == "" {
			name = ch.Username
		}
		url := ch.InviteLink
		if url == "" {
			url = "https://t.me/" + strings.TrimPrefix(ch.Username, "@")
		}
		lines = append(lines, "• "+name)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+name, url),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Tekshirish", Callback{Kind: CallbackCheckJoin}.Encode()),
	))

	m := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if err := b.sender.Send(m); err != nil {
		b.log.Warn("failed to send join prompt", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

// --- Поиск и выдача ---

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	hits, err := b.engine.Search(ctx, query)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if len(hits) == 0 {
		b.sender.Text(chatID,
			fmt.Sprintf("❌ '%s' bo'yicha hech narsa topilmadi.\n\nKod yoki film nomini aniqroq kiriting.", query),
		)
		return
	}

	// точное совпадение кода — сразу видео
	if len(hits) == 1 && hits[0].Code == query {
		b.sendMovie(ctx, chatID, hits[0].Code)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	lines := []string{fmt.Sprintf("🔍 '%s' bo'yicha topildi:", query)}
	for i, h := range hits {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, h.Title, h.Code))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", i+1, h.Title),
				Callback{Kind: CallbackMovie, Code: h.Code}.Encode(),
			),
		))
	}

	m := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if err := b.sender.Send(m); err != nil {
		b.log.Warn("failed to send search results", zap.Error(err))
	}
}

// sendMovie отправляет видео по коду и увеличивает счётчик просмотров.
func (b *Bot) sendMovie(ctx context.Context, chatID int64, code string) {
	movie, err := b.catalog.GetByCode(ctx, code)
	if errors.Is(err, catalog.ErrNotFound) {
		b.sender.Text(chatID, fmt.Sprintf("❌ '%s' kodi bo'yicha video topilmadi.", code))
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}

	if err := b.catalog.IncrementViews(ctx, code); err != nil {
		b.log.Warn("failed to increment views", zap.Error(err), zap.String("code", code))
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(movie.FileID))
	video.Caption = fmt.Sprintf("🎬 %s\n\nKod: %s\n👁 %d marta ko'rilgan", movie.Title, movie.Code, movie.Views+1)
	video.SupportsStreaming = true
	video.ReplyMarkup = reportKeyboard(movie.Code)

	if err := b.sender.Send(video); err != nil {
		b.log.Error("failed to send video", zap.Error(err), zap.String("code", code))
		b.sender.Text(chatID, "❌ Videoni yuborib bo'lmadi. Keyinroq urinib ko'ring.")
		return
	}

	b.log.Info("movie sent", zap.String("code", code), zap.Int64("chat_id", chatID))
}

func reportKeyboard(code string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚠️ Xato video",
				Callback{Kind: CallbackReport, Code: code, ReportType: report.TypeWrongMovie}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("📉 Sifat past",
				Callback{Kind: CallbackReport, Code: code, ReportType: report.TypeBadQuality}.Encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔇 Ovoz yo'q",
				Callback{Kind: CallbackReport, Code: code, ReportType: report.TypeNoSound}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("❓ Boshqa",
				Callback{Kind: CallbackReport, Code: code, ReportType: report.TypeOther}.Encode()),
		),
	)
	return &kb
}

// --- Списки ---

func (b *Bot) sendTopPage(ctx context.Context, chatID int64, page int) {
	movies, total, err := b.catalog.ListTop(ctx, b.cfg.TopMinViews, page, listPageSize)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sendMovieList(chatID, "🏆 Top filmlar", movies, total, page, CallbackTop, nil)
}

func (b *Bot) sendRecentPage(ctx context.Context, chatID int64, page int) {
	movies, total, err := b.catalog.ListRecentByYears(ctx, recentYears, page, listPageSize)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sendMovieList(chatID, "📊 Yangi filmlar", movies, total, page, CallbackRecent, nil)
}

func (b *Bot) sendTagPage(ctx context.Context, chatID int64, tagType, tagValue string, page int) {
	movies, total, err := b.catalog.ListByTag(ctx, tagType, tagValue, page, listPageSize)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	nav := &Callback{Kind: CallbackTag, TagType: tagType, TagValue: tagValue}
	b.sendMovieList(chatID, "🎬 "+tagValue, movies, total, page, "", nav)
}

// sendMovieList рисует страницу списка с кнопками видео и навигацией.
// Для простых списков передаётся kind, для тегов — шаблон nav.
func (b *Bot) sendMovieList(chatID int64, header string, movies []catalog.Movie, total int64, page int, kind CallbackKind, nav *Callback) {
	totalPages := catalog.TotalPages(total, listPageSize)
	if len(movies) == 0 {
		b.sender.Text(chatID, header+": hozircha bo'sh.")
		return
	}

	lines := []string{fmt.Sprintf("%s (%d/%d):", header, page+1, totalPages)}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range movies {
		lines = append(lines, fmt.Sprintf("%d. %s", page*listPageSize+i+1, m.Title))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.Title,
				Callback{Kind: CallbackMovie, Code: m.Code}.Encode()),
		))
	}

	pageCallback := func(p int) string {
		if nav != nil {
			c := *nav
			c.Page = p
			return c.Encode()
		}
		return Callback{Kind: kind, Page: p}.Encode()
	}

	var navRow []tgbotapi.InlineKeyboardButton
	if page > 0 {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("⬅️", pageCallback(page-1)))
	}
	if page+1 < totalPages {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("➡️", pageCallback(page+1)))
	}
	if len(navRow) > 0 {
		rows = append(rows, navRow)
	}

	m := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if err := b.sender.Send(m); err != nil {
		b.log.Warn("failed to send movie list", zap.Error(err))
	}
}

// --- Callback-кнопки ---

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	c, err := ParseCallback(cb.Data)
	if err != nil {
		b.log.Warn("rejected callback", zap.Error(err), zap.Int64("user_id", userID))
		b.sender.AnswerCallback(cb.ID, "Xato so'rov")
		return
	}
	b.sender.AnswerCallback(cb.ID, "")

	switch c.Kind {
	case CallbackCheckJoin:
		if b.requireAccess(ctx, userID, chatID) {
			b.sender.Text(chatID, "✅ Obuna tasdiqlandi! Endi kod yoki nom yuboring.")
		}
	case CallbackMovie:
		if b.requireAccess(ctx, userID, chatID) {
			b.sendMovie(ctx, chatID, c.Code)
		}
	case CallbackTop:
		if b.requireAccess(ctx, userID, chatID) {
			b.sendTopPage(ctx, chatID, c.Page)
		}
	case CallbackRecent:
		if b.requireAccess(ctx, userID, chatID) {
			b.sendRecentPage(ctx, chatID, c.Page)
		}
	case CallbackTag:
		if b.requireAccess(ctx, userID, chatID) {
			b.sendTagPage(ctx, chatID, c.TagType, c.TagValue, c.Page)
		}
	case CallbackReport:
		b.sessions.Set(userID, session.State{
			Kind:       session.KindAwaitingReportComment,
			MovieCode:  c.Code,
			ReportType: c.ReportType,
		})
		b.sender.Text(chatID, "✍️ Muammoni qisqacha yozib yuboring:")
	}
}

// --- Диалоги ---

func (b *Bot) finishReport(ctx context.Context, chatID, userID int64, st session.State, text string) {
	b.sessions.Clear(userID)
	if _, err := b.reports.Add(ctx, userID, st.MovieCode, st.ReportType, text); err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sender.Text(chatID, "✅ Shikoyat qabul qilindi. Rahmat!")
}

func (b *Bot) finishSetChannel(chatID, userID int64, text string, archive bool) {
	if !b.gate.IsAdmin(userID) {
		b.sessions.Clear(userID)
		return
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		b.sender.Text(chatID, "❌ Kanal ID raqam bo'lishi kerak, masalan -1001234567890.")
		return
	}
	b.sessions.Clear(userID)
	if archive {
		b.setArchiveChannel(id)
		b.sender.Text(chatID, "✅ Arxiv kanal yangilandi.")
	} else {
		b.setCodesChannel(id)
		b.sender.Text(chatID, "✅ Kodlar kanali yangilandi.")
	}
}

// --- Админ: загрузка видео ---

// handleAdminVideo добавляет видео в каталог. Код — первый хештег подписи.
func (b *Bot) handleAdminVideo(ctx context.Context, msg *tgbotapi.Message) {
	if !b.gate.IsAdmin(msg.From.ID) {
		return
	}
	chatID := msg.Chat.ID
	caption := msg.Caption

	m := reFirstHashtag.FindStringSubmatch(caption)
	if m == nil {
		b.sender.Text(chatID, "❌ Izohda #KOD123 ko'rinishida kod ko'rsating.")
		return
	}
	code := m[1]

	var (
		fileID   string
		duration int
		fileSize int64
	)
	switch {
	case msg.Video != nil:
		fileID = msg.Video.FileID
		duration = msg.Video.Duration
		fileSize = int64(msg.Video.FileSize)
	case isVideoDocument(msg):
		fileID = msg.Document.FileID
		fileSize = int64(msg.Document.FileSize)
	default:
		b.sender.Text(chatID, "❌ Xabarda video fayl yo'q.")
		return
	}

	movie, err := b.catalog.Upsert(ctx, code, fileID, caption, duration, fileSize)
	if err != nil {
		b.internalError(chatID, err)
		return
	}

	// дублируем в архив и публикуем код, если каналы настроены
	if id := b.archiveChannel(); id != 0 {
		video := tgbotapi.NewVideo(id, tgbotapi.FileID(fileID))
		video.Caption = caption
		if err := b.sender.Send(video); err != nil {
			b.log.Warn("failed to forward to archive channel", zap.Error(err))
		}
	}
	if id := b.codesChannel(); id != 0 {
		b.sender.Text(id, fmt.Sprintf("🎬 %s\nKod: %s", movie.Title, movie.Code))
	}

	b.sender.Text(chatID, fmt.Sprintf("✅ Video #%s qo'shildi — %s", movie.Code, movie.Title))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, code string) {
	if code == "" {
		b.sender.Text(chatID, "Foydalanish: /delete KOD123")
		return
	}
	err := b.catalog.Delete(ctx, code)
	if errors.Is(err, catalog.ErrNotFound) {
		b.sender.Text(chatID, fmt.Sprintf("❌ '%s' kodi topilmadi.", code))
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	if err := b.reports.DeleteForMovie(ctx, code); err != nil {
		b.log.Warn("failed to delete reports for movie", zap.Error(err), zap.String("code", code))
	}
	b.sender.Text(chatID, fmt.Sprintf("✅ Video #%s o'chirildi.", code))
}

func (b *Bot) handleAddChannel(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.sender.Text(chatID, "Foydalanish: /addchannel -1001234567890 @kanal [private]")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.sender.Text(chatID, "❌ Kanal ID raqam bo'lishi kerak.")
		return
	}
	username := fields[1]
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	ch := gate.Channel{
		ChannelID: id,
		Username:  username,
		IsPrivate: len(fields) > 2 && fields[2] == "private",
	}
	if err := b.channels.Add(ctx, ch); err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sender.Text(chatID, fmt.Sprintf("✅ Kanal %s qo'shildi.", username))
}

func (b *Bot) handleRemoveChannel(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.sender.Text(chatID, "Foydalanish: /removechannel -1001234567890")
		return
	}
	err = b.channels.Remove(ctx, id)
	if errors.Is(err, gate.ErrChannelNotFound) {
		b.sender.Text(chatID, "❌ Bunday kanal ro'yxatda yo'q.")
		return
	}
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sender.Text(chatID, "✅ Kanal o'chirildi.")
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) {
	movies, err := b.catalog.Count(ctx)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	channels, err := b.channels.Active(ctx)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	pending, err := b.reports.Pending(ctx)
	if err != nil {
		b.internalError(chatID, err)
		return
	}
	b.sender.Text(chatID, fmt.Sprintf(
		"📊 Statistika:\n\n🎬 Filmlar: %d\n📢 Kanallar: %d\n⚠️ Ko'rilmagan shikoyatlar: %d",
		movies, len(channels), len(pending),
	))
}

func (b *Bot) internalError(chatID int64, err error) {
	b.log.Error("internal error", zap.Error(err))
	b.sender.Text(chatID, "❌ Ichki xatolik. Keyinroq urinib ko'ring.")
}

func isVideoDocument(msg *tgbotapi.Message) bool {
	return msg.Document != nil && strings.Contains(msg.Document.MimeType, "video")
}
