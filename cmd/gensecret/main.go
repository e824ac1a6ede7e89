package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const SecretKeyBytesLen = 32

// Print a fresh pair of token secrets ready to paste into '.env'
func main() {
	for _, key := range []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		b := make([]byte, SecretKeyBytesLen)

		if _, err := rand.Read(b); err != nil {
			fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s=%s\n", key, hex.EncodeToString(b))
	}
}
