package session

import "sync"

// Kind — этап многошагового диалога с пользователем.
type Kind int

const (
	KindNone Kind = iota
	// ждём текст жалобы на видео
	KindAwaitingReportComment
	// ждём ID архивного канала от админа
	KindAwaitingArchiveChannel
	// ждём ID канала с кодами от админа
	KindAwaitingCodesChannel
)

// State — состояние диалога одного пользователя. Поля заполнены в
// зависимости от Kind.
type State struct {
	Kind       Kind
	MovieCode  string // для KindAwaitingReportComment
	ReportType string // для KindAwaitingReportComment
}

// Manager хранит состояния диалогов по пользователям. Безопасен для
// конкурентного доступа.
type Manager struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewManager() *Manager {
	return &Manager{states: make(map[int64]State)}
}

// Get возвращает состояние пользователя; по умолчанию — KindNone.
func (m *Manager) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

func (m *Manager) Set(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.Kind == KindNone {
		delete(m.states, userID)
		return
	}
	m.states[userID] = st
}

// Clear сбрасывает диалог пользователя.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
