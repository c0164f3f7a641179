package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voice4victims/autoimmune-conditions-tracker-app-sub003/crypto"
)

// GetMasterKey is ONLY used for startup config. It resolves the master secret
// from the environment or key file, without consulting YAML, because secrets
// inside the YAML may themselves need decrypting.
func GetMasterKey() (string, error) {
	key, err := resolveMasterKey(
		getEnvOrDefault(ACT_ENCRYPT_MASTERKEY, ""),
		getEnvOrDefault(ACT_ENCRYPT_MASTERKEY_FILE, ""))
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("no master key available: set %s or %s", ACT_ENCRYPT_MASTERKEY, ACT_ENCRYPT_MASTERKEY_FILE)
	}
	return key, nil
}

// MaybeDecrypt unwraps a configuration value in the ENC{...} at-rest form.
// Plain values pass through unchanged. Either supply a plaintext value, or
// supply a correctly encrypted value; a malformed encrypted value is an error,
// never treated as plaintext.
func MaybeDecrypt(val string) (string, error) {
	if !strings.HasPrefix(val, "ENC{") || !strings.HasSuffix(val, "}") {
		return val, nil
	}
	key, err := GetMasterKey()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(val[4 : len(val)-1])
	if err != nil {
		return "", fmt.Errorf("malformed ENC value: %v", err)
	}
	var payload crypto.EncryptedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("malformed ENC value: %v", err)
	}
	plaintext, err := crypto.NewEngine().Decrypt(payload, key)
	if err != nil {
		return "", fmt.Errorf("ENC value will not decode with the current master key: %v", err)
	}
	return string(plaintext), nil
}

// EncryptForConfig produces the ENC{...} form of a secret so it can be placed
// in YAML or an env file at rest. The protect subcommand calls this.
func EncryptForConfig(val string) (string, error) {
	key, err := GetMasterKey()
	if err != nil {
		return "", err
	}
	payload, err := crypto.NewEngine().Encrypt([]byte(val), key)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "ENC{" + base64.StdEncoding.EncodeToString(raw) + "}", nil
}
