// Command encrypt_secret seals an exchange credential with the master key
// so it can be stored in .env with USE_SECRET=true.
//
//	go run ./scripts/encrypt_secret -gen-key
//	go run ./scripts/encrypt_secret "my-api-secret"
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dunea/blockchain-ai-quantificat/pkg/crypto"
)

func main() {
	genKey := flag.Bool("gen-key", false, "print a new random MASTER_ENCRYPTION_KEY and exit")
	flag.Parse()

	if *genKey {
		key, err := crypto.GenerateKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("MASTER_ENCRYPTION_KEY=%s\n", key)
		return
	}

	_ = godotenv.Load()

	plaintext := strings.Join(flag.Args(), " ")
	if plaintext == "" {
		// Read from stdin so the secret stays out of shell history.
		fmt.Fprint(os.Stderr, "value to seal: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "no input")
			os.Exit(1)
		}
		plaintext = strings.TrimRight(line, "\r\n")
	}

	kr, err := crypto.LoadKeyring()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load keyring: %v\n", err)
		os.Exit(1)
	}
	sealed, err := kr.Seal(plaintext)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(sealed)
}
