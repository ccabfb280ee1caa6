// Package main is the entry point for crmctl, the CRM maintenance command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/ezmobilemechanic/crm/cmd/crmctl/internal/commands"
)

func main() {
	if err := commands.NewRootCmd(commands.DefaultEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
