package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// sign returns base64(HMAC-SHA256(ts + method + path + body)).
func sign(secret, ts, method, requestPath, body string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
