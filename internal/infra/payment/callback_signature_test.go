//go:build !integration

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signCallback(secret, externalTxID, status, amount string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(externalTxID + status + amount))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyCallbackSignature(t *testing.T) {
	const secret = "cb-secret"
	sig := signCallback(secret, "PASS_user-1_1700000000000", "SUCCESSFUL", "1500")

	if !VerifyCallbackSignature(secret, "PASS_user-1_1700000000000", "SUCCESSFUL", "1500", sig) {
		t.Fatal("valid signature rejected")
	}
	if !VerifyCallbackSignature(secret, "PASS_user-1_1700000000000", "SUCCESSFUL", "1500", strings.ToUpper(sig)) {
		t.Fatal("uppercase hex rejected")
	}
	if VerifyCallbackSignature(secret, "PASS_user-1_1700000000000", "SUCCESSFUL", "1600", sig) {
		t.Fatal("tampered amount accepted")
	}
	if VerifyCallbackSignature(secret, "PASS_user-2_1700000000000", "SUCCESSFUL", "1500", sig) {
		t.Fatal("tampered transaction id accepted")
	}
	if VerifyCallbackSignature("other-secret", "PASS_user-1_1700000000000", "SUCCESSFUL", "1500", sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifyCallbackSignature(secret, "PASS_user-1_1700000000000", "SUCCESSFUL", "1500", "") {
		t.Fatal("empty signature accepted")
	}
}
