package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// initDataMaxAge bounds how old a Mini-App login payload may be.
const initDataMaxAge = 24 * time.Hour

// ValidateTelegramInitData verifies the signed initData string a
// Telegram Mini App sends on login. The check string is every field
// except hash, sorted, joined with newlines; the key is
// HMAC-SHA256("WebAppData", botToken).
func ValidateTelegramInitData(initData, botToken string) (*TelegramIdentity, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}
	providedHash := values.Get("hash")
	if providedHash == "" {
		return nil, false
	}

	var parts []string
	for key, vals := range values {
		if key == "hash" || len(vals) == 0 {
			continue
		}
		parts = append(parts, key+"="+vals[0])
	}
	sort.Strings(parts)
	dataCheckString := strings.Join(parts, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(providedHash)) {
		return nil, false
	}

	if authDate := values.Get("auth_date"); authDate != "" {
		ts, err := strconv.ParseInt(authDate, 10, 64)
		if err != nil || time.Since(time.Unix(ts, 0)) > initDataMaxAge {
			return nil, false
		}
	}

	var user struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		PhotoURL  string `json:"photo_url"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, false
	}

	return &TelegramIdentity{
		TelegramID: user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		PhotoURL:   user.PhotoURL,
	}, true
}
