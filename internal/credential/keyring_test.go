package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Keyring_RoundTrip(t *testing.T) {
	k := New(keyring.NewArrayKeyring(nil))

	_, err := k.Get("bt_token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, k.Set("bt_token", "abc"))
	got, err := k.Get("bt_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, k.Delete("bt_token"))
	require.NoError(t, k.Delete("bt_token"))
	_, err = k.Get("bt_token")
	assert.ErrorIs(t, err, ErrNotFound)
}
