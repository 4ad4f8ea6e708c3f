package services

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testInitData builds a well-formed Telegram initData payload.
func testInitData(id int64, firstName string) string {
	user, _ := json.Marshal(map[string]any{"id": id, "first_name": firstName})
	v := url.Values{}
	v.Set("user", string(user))
	v.Set("auth_date", "1717243800")
	v.Set("hash", "abc123")
	return v.Encode()
}

func TestParseInitData(t *testing.T) {
	user, err := ParseInitData(testInitData(42, "Abeba"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "Abeba", user.DisplayName())
}

func TestParseInitDataRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no user":      "auth_date=1717243800&hash=abc",
		"bad json":     "user=%7Bnot-json",
		"missing id":   "user=" + url.QueryEscape(`{"first_name":"x"}`),
		"negative id":  "user=" + url.QueryEscape(`{"id":-3}`),
		"bad encoding": "user=%zz",
	}
	for name, raw := range cases {
		_, err := ParseInitData(raw)
		require.Error(t, err, name)
		var authErr *AuthError
		assert.ErrorAs(t, err, &authErr, name)
	}
}

func TestDisplayNamePreference(t *testing.T) {
	assert.Equal(t, "kebede", (&TelegramUser{ID: 1, FirstName: "Kebede", Username: "kebede"}).DisplayName())
	assert.Equal(t, "Kebede", (&TelegramUser{ID: 1, FirstName: "Kebede"}).DisplayName())
	assert.Equal(t, "player-9", (&TelegramUser{ID: 9}).DisplayName())
}
