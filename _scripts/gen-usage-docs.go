//go:build ignore
// +build ignore

package main

import (
	"github.com/go-skink/skink/cmd/skink/cmds"
	"github.com/spf13/cobra/doc"
)

func main() {
	doc.GenMarkdownTree(cmds.New(true), "./Documentation/usage")
}
