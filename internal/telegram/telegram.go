// Package telegram реализует проверку подписи данных Telegram Login Widget.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotConfigured возвращается, если токен бота не задан и проверка невозможна.
var (
	ErrNotConfigured = errors.New("telegram verification is not configured")
	// ErrInvalidSignature возвращается при несовпадении подписи данных.
	ErrInvalidSignature = errors.New("invalid telegram signature")
	// ErrExpired возвращается, если данные авторизации устарели.
	ErrExpired = errors.New("telegram auth data expired")
)

// Данные авторизации принимаются не старше суток.
const maxAuthAge = 24 * time.Hour

// LoginData содержит поля, которые Telegram Login Widget передаёт при входе.
type LoginData struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// Verifier проверяет подпись данных Telegram по секрету, производному от токена бота.
type Verifier struct {
	secretKey []byte
	now       func() time.Time
}

// NewVerifier создаёт Verifier для указанного токена бота.
// При пустом токене проверка всегда завершается ErrNotConfigured:
// обходных путей через содержимое запроса нет.
func NewVerifier(botToken string) *Verifier {
	v := &Verifier{now: time.Now}
	if botToken != "" {
		key := sha256.Sum256([]byte(botToken))
		v.secretKey = key[:]
	}
	return v
}

// Enabled сообщает, настроена ли проверка подписи.
func (v *Verifier) Enabled() bool {
	return len(v.secretKey) > 0
}

// Verify проверяет подпись и свежесть данных авторизации.
func (v *Verifier) Verify(data LoginData) error {
	if !v.Enabled() {
		return ErrNotConfigured
	}

	if data.Hash == "" {
		return ErrInvalidSignature
	}

	authTime := time.Unix(data.AuthDate, 0)
	if v.now().Sub(authTime) > maxAuthAge {
		return ErrExpired
	}

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(checkString(data)))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(data.Hash))) {
		return ErrInvalidSignature
	}

	return nil
}

// checkString собирает строку проверки: пары key=value, отсортированные по ключу
// и соединённые переводом строки. Пустые необязательные поля не включаются.
func checkString(data LoginData) string {
	pairs := []string{
		fmt.Sprintf("auth_date=%d", data.AuthDate),
		fmt.Sprintf("id=%d", data.ID),
	}

	if data.FirstName != "" {
		pairs = append(pairs, "first_name="+data.FirstName)
	}
	if data.LastName != "" {
		pairs = append(pairs, "last_name="+data.LastName)
	}
	if data.Username != "" {
		pairs = append(pairs, "username="+data.Username)
	}
	if data.PhotoURL != "" {
		pairs = append(pairs, "photo_url="+data.PhotoURL)
	}

	sort.Strings(pairs)
	return strings.Join(pairs, "\n")
}
