package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/Mavwarf/mkicns/internal/compose"
	"github.com/Mavwarf/mkicns/internal/config"
	"github.com/Mavwarf/mkicns/internal/diag"
	"github.com/Mavwarf/mkicns/internal/history"
	"github.com/Mavwarf/mkicns/internal/iconset"
	"github.com/Mavwarf/mkicns/internal/iconutil"
	"github.com/Mavwarf/mkicns/internal/paths"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// buildFlags holds the command-line overrides applied on top of the config.
type buildFlags struct {
	output      string
	staging     string
	keepStaging bool
	native      bool
	noLog       bool
	verbose     bool
}

func main() {
	args := os.Args[1:]
	configPath := ""
	var flags buildFlags

	// Parse flags
	filtered := args[:0]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--output", "-o":
			if i+1 < len(args) {
				flags.output = args[i+1]
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --output requires a file path\n")
				os.Exit(1)
			}
		case "--staging":
			if i+1 < len(args) {
				flags.staging = args[i+1]
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --staging requires a directory path\n")
				os.Exit(1)
			}
		case "--keep-staging":
			flags.keepStaging = true
		case "--native":
			flags.native = true
		case "--no-log":
			flags.noLog = true
		case "--verbose":
			flags.verbose = true
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --config requires a file path\n")
				os.Exit(1)
			}
		default:
			filtered = append(filtered, args[i])
		}
	}

	if len(filtered) > 0 {
		switch filtered[0] {
		case "help", "-h", "--help":
			printUsage()
			return
		case "version", "-V", "--version":
			printVersion()
			return
		case "sizes":
			sizesCmd()
			return
		case "config":
			configCmd(filtered[1:], configPath)
			return
		case "history":
			historyCmd(filtered[1:], configPath)
			return
		}
	}

	runBuild(filtered, configPath, flags)
}

// resolveOptions layers the command line over the loaded config:
// file < environment < flags.
func resolveOptions(cfg config.Config, args []string, flags buildFlags) config.Options {
	opts := cfg.Options
	if len(args) == 1 {
		opts.Source = args[0]
	}
	if flags.output != "" {
		opts.Output = flags.output
	}
	if flags.staging != "" {
		opts.Staging = flags.staging
	}
	if flags.keepStaging {
		opts.KeepStaging = true
	}
	if flags.native {
		opts.Native = true
	}
	if flags.noLog {
		opts.Log = false
	}
	return opts
}

func runBuild(args []string, configPath string, flags buildFlags) {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "Error: expected a single source image\n")
		fmt.Fprintf(os.Stderr, "Run 'mkicns help' for usage.\n")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("%v", err)
	}
	opts := resolveOptions(cfg, args, flags)

	if opts.Source == "" {
		fmt.Fprintf(os.Stderr, "Error: no source image specified\n")
		fmt.Fprintf(os.Stderr, "Run 'mkicns help' for usage.\n")
		os.Exit(1)
	}

	log := diag.New(flags.verbose)
	start := time.Now()

	// Check the source before any staging directory is created, so a typo
	// leaves nothing behind on disk.
	if _, err := os.Stat(opts.Source); err != nil {
		buildFailed(opts, err)
	}

	fmt.Printf("Loading %s...\n", opts.Source)
	src, err := compose.Open(opts.Source)
	if err != nil {
		buildFailed(opts, err)
	}
	b := src.Bounds()
	fmt.Printf("✓ Loaded image: %dx%d\n", b.Dx(), b.Dy())
	log.Debug().Int("width", b.Dx()).Int("height", b.Dy()).Msg("source decoded")

	staging := opts.StagingDir()
	fmt.Printf("Creating icon sizes in %s...\n", staging)
	files, err := iconset.Write(staging, src, func(size int) {
		if iconset.HasRetina(size) {
			fmt.Printf("  ✓ %dx%d (+@2x)\n", size, size)
		} else {
			fmt.Printf("  ✓ %dx%d\n", size, size)
		}
	})
	if err != nil {
		buildFailed(opts, err)
	}

	var total int64
	details := make([]history.FileDetail, len(files))
	for i, f := range files {
		total += f.Bytes
		details[i] = history.FileDetail{Name: f.Name, Bytes: f.Bytes}
		log.Debug().Str("file", f.Name).Int64("bytes", f.Bytes).Msg("staged")
	}

	fmt.Printf("Creating %s...\n", opts.Output)
	packStart := time.Now()
	if opts.Native {
		err = iconset.EncodeICNS(staging, opts.Output)
	} else {
		err = iconutil.Pack(staging, opts.Output)
	}
	if err != nil {
		// Staging stays on disk so the partial output can be inspected.
		buildFailed(opts, err)
	}
	log.Debug().Dur("elapsed", time.Since(packStart)).Msg("packaged")

	if !opts.KeepStaging {
		fmt.Println("Cleaning up...")
		if err := os.RemoveAll(staging); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: remove staging: %v\n", err)
		}
	}

	recordRun(opts, history.Run{
		Source:   opts.Source,
		Output:   opts.Output,
		Files:    len(files),
		Bytes:    total,
		Duration: time.Since(start),
		Status:   history.StatusOK,
		Details:  details,
	})

	fmt.Printf("✓ App icon created: %s (%s)\n", opts.Output, formatDuration(time.Since(start)))
}

// buildFailed records the failed run, prints the error, and exits 1.
func buildFailed(opts config.Options, err error) {
	recordRun(opts, history.Run{
		Source: opts.Source,
		Output: opts.Output,
		Status: history.StatusError,
		Error:  err.Error(),
	})
	fatal("%v", err)
}

// recordRun appends the run to history. Best-effort: failures are reported
// on stderr but never change the exit code.
func recordRun(opts config.Options, r history.Run) {
	if !opts.Log {
		return
	}
	st, err := history.Open(paths.DataDir(), opts.HistoryBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}
	if err := st.LogRun(r); err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
	}
}

// formatDuration returns a compact duration string (e.g. "3s", "2m15s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	return d.String()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("mkicns %s (%s) %s/%s\n", version, buildDate, runtime.GOOS, runtime.GOARCH)
}

func printUsage() {
	fmt.Printf("mkicns %s - Generate a macOS .icns app icon from a source image\n", version)
	fmt.Println(`
Usage:
  mkicns [options] [source.png]

Options:
  --output, -o <path>    Output .icns path (default: AppIcon.icns)
  --staging <dir>        Staging .iconset directory (default: derived from output)
  --keep-staging         Keep the staging directory after packaging
  --native               Encode the .icns in-process instead of running iconutil
  --no-log               Skip recording this run in history
  --config, -c <path>    Path to mkicns-config.json
  --verbose              Diagnostic logging on stderr

Commands:
  sizes                  List the files emitted into the iconset
  config [validate]      Check the config file for errors
  history [N]            Show the last N recorded runs (default 10)
  history summary [days] Per-output build counts (days or "all")
  history clean [days]   Remove runs older than N days
  history clear          Delete all recorded runs
  history export [days]  Export runs as JSON
  history watch          Live summary, refreshed every 2s (x to exit)
  version, -V            Show version and build date
  help, -h, --help       Show this help message

Config resolution:
  1. --config <path>                      (explicit)
  2. mkicns-config.json next to binary    (portable)
  3. ~/.config/mkicns/mkicns-config.json  (user default)

Examples:
  mkicns logo.png                  Build AppIcon.icns from logo.png
  mkicns -o Build/App.icns logo.png  Build to a custom output path
  mkicns --native logo.png         Build without iconutil (any platform)
  mkicns --keep-staging logo.png   Keep the .iconset directory around

Created by Thomas Häuser
https://mavwarf.netlify.app/
https://github.com/Mavwarf/mkicns`)
}
