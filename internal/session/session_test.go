package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/api"
	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/tests/testutil"
)

type fakeAuth struct {
	calls int
	resp  *api.LoginResponse
	err   error
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*api.LoginResponse, error) {
	f.calls++
	return f.resp, f.err
}

var dewi = model.User{ID: 2, Username: "dewi", Name: "Dewi Lestari", Role: model.RoleUnit}

func Test_SignIn_EmptyFieldsMakeNoCall(t *testing.T) {
	m := NewManager(NewMemoryVault(), nil)
	auth := &fakeAuth{}

	_, err := m.SignIn(context.Background(), auth, "  ", "secret")
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	assert.Equal(t, "Username dan password wajib diisi", LoginMessage(err))

	_, err = m.SignIn(context.Background(), auth, "dewi", "")
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	assert.Zero(t, auth.calls)
}

func Test_SignIn_BadCredentials(t *testing.T) {
	m := NewManager(NewMemoryVault(), nil)
	auth := &fakeAuth{err: &api.AuthError{Message: "invalid credentials"}}

	st, err := m.SignIn(context.Background(), auth, "dewi", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Username atau password salah", LoginMessage(err))
	assert.False(t, st.LoggedIn())
}

func Test_SignIn_PersistsAndRestores(t *testing.T) {
	vault := NewMemoryVault()
	m := NewManager(vault, nil)
	auth := &fakeAuth{resp: &api.LoginResponse{AccessToken: "tok", SafeUser: dewi}}

	st, err := m.SignIn(context.Background(), auth, "dewi", "secret")
	require.NoError(t, err)
	assert.True(t, st.LoggedIn())

	view := m.View()
	assert.Equal(t, "tok", view.Token())

	restored := NewManager(vault, nil).Restore(context.Background())
	assert.True(t, restored.LoggedIn())
	assert.Equal(t, dewi, restored.User)
}

func Test_Restore_CorruptUserIsDiscarded(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"undefined", "{not json", `{"id":0}`} {
		vault := NewMemoryVault()
		require.NoError(t, vault.Set(ctx, TokenKey, "tok"))
		require.NoError(t, vault.Set(ctx, UserKey, raw))

		st := NewManager(vault, nil).Restore(ctx)
		assert.False(t, st.LoggedIn(), raw)

		_, err := vault.Get(ctx, TokenKey)
		assert.ErrorIs(t, err, ErrMissing, raw)
	}
}

func Test_Restore_OrphanValueIsDiscarded(t *testing.T) {
	ctx := context.Background()

	vault := NewMemoryVault()
	require.NoError(t, vault.Set(ctx, TokenKey, "tok"))
	mgr := NewManager(vault, nil)
	assert.False(t, mgr.Restore(ctx).LoggedIn())
	_, err := vault.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, ErrMissing)

	vault = NewMemoryVault()
	require.NoError(t, vault.Set(ctx, UserKey, `{"id":2,"username":"dewi","role":"UNIT"}`))
	mgr = NewManager(vault, nil)
	assert.False(t, mgr.Restore(ctx).LoggedIn())
	_, err = vault.Get(ctx, UserKey)
	assert.ErrorIs(t, err, ErrMissing)
}

func Test_Logout_ClearsVault(t *testing.T) {
	ctx := context.Background()
	vault := NewMemoryVault()
	m := NewManager(vault, nil)
	require.NoError(t, m.Login(ctx, "tok", dewi))

	m.Logout(ctx)
	assert.False(t, m.View().LoggedIn())
	_, err := vault.Get(ctx, UserKey)
	assert.ErrorIs(t, err, ErrMissing)
}

func Test_StoreVault(t *testing.T) {
	ctx := context.Background()
	v := StoreVault{KV: testutil.NewTestStore(t)}

	_, err := v.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, ErrMissing)

	m := NewManager(v, nil)
	require.NoError(t, m.Login(ctx, "tok", dewi))
	assert.True(t, NewManager(v, nil).Restore(ctx).LoggedIn())
}
