package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"kinokod/internal/gate"
)

type Config struct {
	BotToken    string
	DatabaseDSN string

	// Администраторы минуют шлюз подписки
	AdminIDs []int64

	// Обязательные каналы из окружения; при старте досеваются в БД
	RequiredChannels []gate.Channel

	// Канал-архив, куда дублируются загруженные видео, и канал с кодами
	ArchiveChannelID int64
	CodesChannelID   int64

	// Таймаут одной живой проверки членства
	GateCheckTimeout time.Duration
	// TTL кэша ответов о членстве
	MemberCacheTTL time.Duration

	// Порог просмотров для списка топовых
	TopMinViews int64
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func Load(log *zap.Logger) *Config {
	return &Config{
		BotToken:         strings.TrimSpace(getEnv("BOT_TOKEN", log)),
		DatabaseDSN:      strings.TrimSpace(getEnv("DATABASE_DSN", log)),
		AdminIDs:         parseIDList(getEnv("ADMIN_IDS", log)),
		RequiredChannels: parseChannels(os.Getenv("REQUIRED_CHANNELS"), log),
		ArchiveChannelID: parseInt64(os.Getenv("ARCHIVE_CHANNEL_ID"), 0),
		CodesChannelID:   parseInt64(os.Getenv("CODES_CHANNEL_ID"), 0),
		GateCheckTimeout: time.Duration(parseInt(os.Getenv("GATE_CHECK_TIMEOUT"), 3)) * time.Second,
		MemberCacheTTL:   time.Duration(parseInt(os.Getenv("MEMBER_CACHE_TTL"), 30)) * time.Second,
		TopMinViews:      parseInt64(os.Getenv("TOP_MIN_VIEWS"), 100),
	}
}

// parseChannels разбирает список вида "-100123:@kanal,-100456:@yopiq:private".
func parseChannels(s string, log *zap.Logger) []gate.Channel {
	var out []gate.Channel
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, ":")
		if len(parts) < 2 {
			log.Warn("пропущен канал в REQUIRED_CHANNELS: неверный формат", zap.String("entry", p))
			continue
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			log.Warn("пропущен канал в REQUIRED_CHANNELS: неверный ID", zap.String("entry", p))
			continue
		}
		username := parts[1]
		if !strings.HasPrefix(username, "@") {
			username = "@" + username
		}
		out = append(out, gate.Channel{
			ChannelID: id,
			Username:  username,
			IsPrivate: len(parts) > 2 && parts[2] == "private",
		})
	}
	return out
}

func parseIDList(s string) []int64 {
	var out []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseInt64(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}
