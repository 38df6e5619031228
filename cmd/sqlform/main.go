// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command sqlform translates query documents into SQL.
package main

import (
	"os"

	"github.com/canonical/sqlform/cmd/sqlform/commands"
)

func main() {
	os.Exit(commands.Execute())
}
