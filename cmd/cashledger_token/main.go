// Command cashledger_token prints a bearer token for an operator, signed with the
// configured JWT_SECRET. Intended for local development and smoke tests.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/cashledger/internal/platform/config"
	"github.com/SscSPs/cashledger/internal/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	operatorID := flag.String("operator", "", "operator id placed in the token subject")
	expiry := flag.Duration("expiry", 8*time.Hour, "token lifetime")
	issuer := flag.String("issuer", "cashledger-dev", "token issuer")
	flag.Parse()

	if *operatorID == "" {
		logger.Error("-operator is required")
		os.Exit(2)
	}

	token, err := utils.GenerateOperatorToken(*operatorID, config.LoadJWTSecret(), *expiry, *issuer)
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
