package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGetClear(t *testing.T) {
	m := NewManager()

	assert.Equal(t, KindNone, m.Get(1).Kind)

	m.Set(1, State{Kind: KindAwaitingReportComment, MovieCode: "M1", ReportType: "no_sound"})
	st := m.Get(1)
	assert.Equal(t, KindAwaitingReportComment, st.Kind)
	assert.Equal(t, "M1", st.MovieCode)

	// состояния пользователей независимы
	assert.Equal(t, KindNone, m.Get(2).Kind)

	m.Clear(1)
	assert.Equal(t, KindNone, m.Get(1).Kind)
}

func TestSetNoneClears(t *testing.T) {
	m := NewManager()
	m.Set(1, State{Kind: KindAwaitingArchiveChannel})
	m.Set(1, State{Kind: KindNone})
	assert.Equal(t, KindNone, m.Get(1).Kind)
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Set(id, State{Kind: KindAwaitingCodesChannel})
			m.Get(id)
			m.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
