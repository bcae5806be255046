// README: Telegram WebApp initData signature verification.
package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var ErrBadSignature = errors.New("init data signature mismatch")

// WebAppUser is the user object Telegram embeds into initData.
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// VerifyInitData checks the HMAC signature Telegram puts on WebApp initData
// and returns the embedded user. The secret key is HMAC-SHA256 of the bot
// token keyed with the literal string "WebAppData", per the Bot API docs.
func VerifyInitData(initData, botToken string) (*WebAppUser, error) {
	vals, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrBadSignature
	}
	gotHash := vals.Get("hash")
	if gotHash == "" {
		return nil, ErrBadSignature
	}
	vals.Del("hash")

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+vals.Get(k))
	}
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, ErrBadSignature
	}

	var u WebAppUser
	if err := json.Unmarshal([]byte(vals.Get("user")), &u); err != nil {
		return nil, ErrBadSignature
	}
	if u.ID == 0 {
		return nil, ErrBadSignature
	}
	return &u, nil
}
