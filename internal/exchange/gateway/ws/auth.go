package ws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

func (w *Client) authenticate() error {
	expires := time.Now().UnixMilli() + 5_000
	payload := fmt.Sprintf("GET/v1/stream%d", expires)

	msg := AuthMessage{
		Op:        "auth",
		APIKey:    w.apiKey,
		Expires:   expires,
		Signature: sign(w.secret, payload),
	}

	if err := w.writeJSON(msg); err != nil {
		return fmt.Errorf("failed to authenticate stream: %w", err)
	}
	return nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
