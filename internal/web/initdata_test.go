package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
	"testing"
)

const testBotToken = "12345:TEST-TOKEN"

// signInitData builds initData the way a Telegram client does.
func signInitData(t *testing.T, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	vals := url.Values{}
	for k, v := range fields {
		vals.Set(k, v)
	}
	vals.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return vals.Encode()
}

func TestVerifyInitData(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"query_id":  "AAE1",
		"user":      `{"id":20,"first_name":"Иван","last_name":"Петров","username":"ivan"}`,
	})

	u, err := VerifyInitData(initData, testBotToken)
	if err != nil {
		t.Fatalf("VerifyInitData: %v", err)
	}
	if u.ID != 20 || u.FirstName != "Иван" || u.Username != "ivan" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestVerifyInitDataTampered(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":20,"first_name":"Иван"}`,
	})
	tampered := strings.Replace(initData, "1700000000", "1700000001", 1)

	if _, err := VerifyInitData(tampered, testBotToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered data must be rejected, got %v", err)
	}
}

func TestVerifyInitDataWrongToken(t *testing.T) {
	initData := signInitData(t, map[string]string{
		"user": `{"id":20,"first_name":"Иван"}`,
	})
	if _, err := VerifyInitData(initData, "other:TOKEN"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong token must be rejected, got %v", err)
	}
}

func TestVerifyInitDataMissingHash(t *testing.T) {
	if _, err := VerifyInitData("user=%7B%22id%22%3A20%7D", testBotToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("missing hash must be rejected, got %v", err)
	}
}
