package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mixelka/zeronode/pkg/models"
)

// ErrNoAccounts is returned when the accounts file has no usable lines
var ErrNoAccounts = errors.New("no accounts configured")

// Load reads accounts from a file with one "email,token,extensionId,proxy" line per account
func Load(path string) ([]models.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads accounts from r. Blank lines are skipped, missing trailing fields are left empty.
func Parse(r io.Reader) ([]models.Account, error) {
	var accounts []models.Account

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		accounts = append(accounts, models.Account{
			Number:      len(accounts) + 1,
			Email:       field(fields, 0),
			Token:       field(fields, 1),
			ExtensionID: field(fields, 2),
			Proxy:       field(fields, 3),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	return accounts, nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
