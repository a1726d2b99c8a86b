package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dropDatabas3/mailjohn/internal/security/secretbox"
)

// Cifra una password SMTP para pegarla en smtp_password_enc.
// La master key viene de SECRETBOX_MASTER_KEY (base64/hex de 32 bytes).
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run encrypt_password.go <plaintext_password>")
	}
	key := os.Getenv("SECRETBOX_MASTER_KEY")
	if key == "" {
		log.Fatal("SECRETBOX_MASTER_KEY is required")
	}

	encrypted, err := secretbox.EncryptWithKey(key, os.Args[1])
	if err != nil {
		log.Fatalf("Encryption failed: %v", err)
	}
	fmt.Printf("Encrypted: %s\n", encrypted)
}
