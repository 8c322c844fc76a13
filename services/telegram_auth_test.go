package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "1234567890:TEST-TOKEN-abcdefghijklmnop"

// buildInitData signs a field set the way Telegram does, so the
// validator is exercised against the real algorithm.
func buildInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	var parts []string
	for k, v := range fields {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(strings.Join(parts, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func validFields(authDate time.Time) map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", authDate.Unix()),
		"query_id":  "AAE5Hk1rAAAAADkeTWtbW0bv",
		"user":      `{"id":987654321,"first_name":"Aruzhan","last_name":"S","username":"aruzhan_s"}`,
	}
}

func TestValidateTelegramInitData(t *testing.T) {
	initData := buildInitData(t, testBotToken, validFields(time.Now()))

	identity, ok := ValidateTelegramInitData(initData, testBotToken)
	require.True(t, ok)
	assert.Equal(t, int64(987654321), identity.TelegramID)
	assert.Equal(t, "aruzhan_s", identity.Username)
	assert.Equal(t, "Aruzhan", identity.FirstName)
}

func TestValidateTelegramInitData_WrongBotToken(t *testing.T) {
	initData := buildInitData(t, "0000000000:OTHER-BOT", validFields(time.Now()))

	_, ok := ValidateTelegramInitData(initData, testBotToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitData_TamperedField(t *testing.T) {
	fields := validFields(time.Now())
	initData := buildInitData(t, testBotToken, fields)

	tampered := strings.Replace(initData, "987654321", "111111111", 1)
	_, ok := ValidateTelegramInitData(tampered, testBotToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitData_StaleAuthDate(t *testing.T) {
	fields := validFields(time.Now().Add(-48 * time.Hour))
	initData := buildInitData(t, testBotToken, fields)

	_, ok := ValidateTelegramInitData(initData, testBotToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitData_MissingHash(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("user", `{"id":987654321}`)

	_, ok := ValidateTelegramInitData(values.Encode(), testBotToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitData_Garbage(t *testing.T) {
	_, ok := ValidateTelegramInitData("not%zzurl-encoded", testBotToken)
	assert.False(t, ok)
}
