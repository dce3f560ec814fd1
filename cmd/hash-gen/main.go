package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"payportal.backend/internal/config"
	"payportal.backend/pkg/crypto"
)

type hashGenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	in      io.Reader
	out     io.Writer
}

func defaultHashGenDeps() hashGenDeps {
	return hashGenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", fmt.Errorf("no value on stdin")
	}
	return secret, nil
}

// runHashGen prints a bcrypt hash of the value read from stdin, and with
// --scope also its identity fingerprint for looking a user up by hand.
func runHashGen(args []string, deps hashGenDeps) error {
	fs := flag.NewFlagSet("hash-gen", flag.ContinueOnError)
	scope := fs.String("scope", "", "fingerprint scope: id_number or account_number (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scope != "" && !crypto.IsFingerprintScope(*scope) {
		return fmt.Errorf("invalid scope: %s (allowed: %s, %s)", *scope, crypto.ScopeIDNumber, crypto.ScopeAccountNumber)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()

	secret, err := readSecret(deps.in)
	if err != nil {
		return err
	}

	hash, err := crypto.NewHasher(cfg.Security.BcryptCost).Hash(secret)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(deps.out, "Bcrypt Hash: %s\n", hash)

	if *scope != "" {
		fp := crypto.NewFingerprinter(cfg.Security.IdentityPepper).Fingerprint(*scope, secret)
		_, _ = fmt.Fprintf(deps.out, "Fingerprint (%s): %s\n", *scope, fp)
	}
	return nil
}

func main() {
	if err := runHashGen(os.Args[1:], defaultHashGenDeps()); err != nil {
		log.Fatalf("Failed to hash value: %v", err)
	}
}
