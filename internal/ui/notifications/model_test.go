package notifications

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/keys"
	"github.com/nhle/bod-watchlist/internal/model"
)

func testItems() []model.Notification {
	return []model.Notification{
		{ID: "n1", TaskID: 10, Message: "Dewi menandai Anda", IsRead: false},
		{ID: "n2", TaskID: 11, Message: "Budi menandai Anda", IsRead: true},
	}
}

func Test_Open_RemembersUnreadAcrossMarkRead(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.Open(testItems())
	assert.Equal(t, map[string]bool{"n1": true}, m.fresh)

	read := testItems()
	read[0].IsRead = true
	m.SetItems(read)
	assert.True(t, m.fresh["n1"])
	assert.True(t, m.items[0].IsRead)
}

func Test_Update_OpenTaskAndClose(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.Open(testItems())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenTaskMsg{TaskID: 11}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func Test_SetItems_ClampsCursor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.Open(testItems())
	m.cursor = 1

	m.SetItems(testItems()[:1])
	assert.Equal(t, 0, m.cursor)
}

func Test_RelativeTime(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "baru saja", relativeTime(now, now.Add(-30*time.Second)))
	assert.Equal(t, "5 menit lalu", relativeTime(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "2 jam lalu", relativeTime(now, now.Add(-2*time.Hour)))
	assert.Equal(t, "3 hari lalu", relativeTime(now, now.Add(-3*24*time.Hour)))
	assert.Empty(t, relativeTime(now, time.Time{}))
}
