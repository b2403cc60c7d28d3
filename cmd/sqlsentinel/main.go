// Package main is the entry point for the sqlsentinel application
package main

import (
	"github.com/datadrift/sqlsentinel/cmd"
)

func main() {
	cmd.Execute()
}
