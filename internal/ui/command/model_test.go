package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Resolve(t *testing.T) {
	cases := map[string]string{
		"dashboard":     "dashboard",
		"  Notif ":      "notifications",
		"ringkasan":     "summary",
		"q":             "quit",
		"sync":          "refresh",
		"AI":            "intake",
		"baru":          "new",
		"keluar":        "logout",
		"mandat":        "tasks",
		"HOME":          "dashboard",
		"exit":          "quit",
		"noted":         "intake",
		"list":          "tasks",
		"r":             "refresh",
		"dash":          "dashboard",
		"notifications": "notifications",
	}
	for in, want := range cases {
		got, ok := Resolve(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := Resolve("hapus semua")
	assert.False(t, ok)
}

func Test_Update_ExecutesKnownCommand(t *testing.T) {
	m := New(80, 24)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("notif")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("notifications"), cmd())
	assert.Empty(t, m.err)
}

func Test_Update_UnknownCommandShowsError(t *testing.T) {
	m := New(80, 24)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "perintah tidak dikenal: xyz", m.err)

	m.Focus()
	assert.Empty(t, m.err)
}
