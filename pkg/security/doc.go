/*
Package security encrypts upstream provider API keys at rest.

SecretsManager wraps AES-256-GCM: EncryptSecret/DecryptSecret operate
on raw bytes with a random nonce prepended to the ciphertext;
EncryptCredential/DecryptCredential are thin base64 wrappers around the
same primitives for storing a ciphertext in a text column
(types.ProviderCredential.EncryptedKey).

The encryption key is derived from the server's own token-signing
secret via DeriveKeyFromServerSecret, so provider credentials are
sealed with a key the process already holds rather than a second
secret to provision and rotate:

	sm, _ := security.NewSecretsManager(security.DeriveKeyFromServerSecret(cfg.Auth.TokenSigningSecret))
	encoded, _ := sm.EncryptCredential(apiKey)
	// ... persist encoded via storage.Credentials ...
	apiKey, _ := sm.DecryptCredential(encoded)

# See Also

  - pkg/auth for the token-signing secret this package derives its key from
  - pkg/storage for the Credentials repository this package's output is persisted through
*/
package security
