package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"eddisonso.com/file-vault/internal/clientcli"
)

func main() {
	err := clientcli.Run(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
