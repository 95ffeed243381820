package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyCallbackSignature checks the aggregator's completion callback:
// signature = HMAC-SHA256(externalTransactionId + status + amount, secret),
// hex encoded.
func VerifyCallbackSignature(secret, externalTxID, status, amount, signature string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(externalTxID + status + amount))
	expected := hex.EncodeToString(h.Sum(nil))
	return strings.EqualFold(expected, signature)
}
