package main

import (
	"fmt"
	"os"

	"github.com/Mavwarf/mkicns/internal/config"
	"github.com/Mavwarf/mkicns/internal/iconset"
)

// sizesCmd lists every file a build stages, with its pixel resolution.
func sizesCmd() {
	for _, size := range iconset.Sizes {
		fmt.Printf("  %-20s %5dx%d\n", iconset.FileName(size, false), size, size)
		if iconset.HasRetina(size) {
			fmt.Printf("  %-20s %5dx%d\n", iconset.FileName(size, true), size*2, size*2)
		}
	}
}

func configCmd(args []string, configPath string) {
	if len(args) == 0 || args[0] == "validate" {
		configValidate(configPath)
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
	os.Exit(1)
}

func configValidate(configPath string) {
	p := config.FindPath(configPath)
	if _, err := config.Load(configPath); err != nil {
		fatal("%v", err)
	}
	if p == "" {
		fmt.Println("Config OK: built-in defaults (no config file found)")
		return
	}
	fmt.Printf("Config OK: %s\n", p)
}
