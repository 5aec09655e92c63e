package clientcli

import (
	"fmt"
	"strings"

	vault "eddisonso.com/file-vault/pkg/vault-sdk"
)

// parseArgs splits a command line on blanks, honoring single and double
// quotes so paths with spaces can be typed. A quoted empty string is kept
// as an argument.
func parseArgs(line string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoted := false
	quoteChar := rune(0)

	for _, r := range line {
		switch {
		case inQuote && r == quoteChar:
			inQuote = false
		case inQuote:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			inQuote = true
			quoted = true
			quoteChar = r
		case r == ' ' || r == '\t':
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args
}

func requireID(usage string, args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return vault.ParseFileID(args[0])
}
