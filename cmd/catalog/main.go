package main

import (
	"fmt"
	"os"

	tool "github.com/sandeepkv93/catalog-editor/internal/tools/catalogctl"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(3)
	}
}
