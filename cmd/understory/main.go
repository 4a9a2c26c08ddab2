package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/config"
)

var (
	flagRoot    string
	flagFormat  string
	flagTimeout time.Duration
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Call-hierarchy navigation for Python codebases",
	Long:          "Understory parses a Python workspace with tree-sitter and answers call-hierarchy queries: what a symbol is, who calls it, and what it calls. All line and column numbers are 0-based.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace root directory")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "query deadline")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(incomingCmd)
	rootCmd.AddCommand(outgoingCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare FILE:LINE:COL",
	Short: "Resolve the symbol at a position to a call-hierarchy item",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrepare,
}

var incomingCmd = &cobra.Command{
	Use:   "incoming FILE:LINE:COL",
	Short: "List the callers of the symbol at a position",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncoming,
}

var outgoingCmd = &cobra.Command{
	Use:   "outgoing FILE:LINE:COL",
	Short: "List the calls made from the symbol at a position",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutgoing,
}

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// parsePosition splits a FILE:LINE:COL argument. The file part may itself
// contain colons, so the split works from the right.
func parsePosition(arg string) (string, understory.Point, error) {
	var pos understory.Point
	colIdx := strings.LastIndex(arg, ":")
	if colIdx < 0 {
		return "", pos, fmt.Errorf("invalid position %q: want FILE:LINE:COL", arg)
	}
	lineIdx := strings.LastIndex(arg[:colIdx], ":")
	if lineIdx < 0 {
		return "", pos, fmt.Errorf("invalid position %q: want FILE:LINE:COL", arg)
	}
	file := arg[:lineIdx]
	line, err := parseCoord(arg[lineIdx+1:colIdx], "line")
	if err != nil {
		return "", pos, err
	}
	col, err := parseCoord(arg[colIdx+1:], "column")
	if err != nil {
		return "", pos, err
	}
	if file == "" {
		return "", pos, fmt.Errorf("invalid position %q: empty file", arg)
	}
	return file, understory.Point{Line: line, Col: col}, nil
}

func parseCoord(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	return n, nil
}

// loadProvider loads the workspace under --root, applying .understory.yml
// when present, and returns a provider plus the query context.
func loadProvider(opts ...understory.ProviderOption) (*understory.Provider, context.Context, context.CancelFunc, error) {
	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolving root %q: %w", flagRoot, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, nil, fmt.Errorf("not a directory: %s", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, nil, err
	}
	program, err := understory.Load(root,
		understory.WithIncludes(cfg.Includes...),
		understory.WithExcludes(cfg.Excludes...),
		understory.WithOpenFiles(cfg.Open...),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading workspace: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	return understory.NewProvider(program, opts...), ctx, cancel, nil
}

func runPrepare(cmd *cobra.Command, args []string) error {
	file, pos, err := parsePosition(args[0])
	if err != nil {
		return outputError("prepare", err)
	}
	provider, ctx, cancel, err := loadProvider()
	if err != nil {
		return outputError("prepare", err)
	}
	defer cancel()

	item, err := provider.Prepare(ctx, file, pos)
	if err != nil {
		return outputError("prepare", err)
	}
	return outputResult(CLIResult{Command: "prepare", Results: item})
}

func runIncoming(cmd *cobra.Command, args []string) error {
	file, pos, err := parsePosition(args[0])
	if err != nil {
		return outputError("incoming", err)
	}
	provider, ctx, cancel, err := loadProvider(understory.WithProgress(scanProgress()))
	if err != nil {
		return outputError("incoming", err)
	}
	defer cancel()

	calls, err := provider.IncomingCalls(ctx, file, pos)
	if err != nil {
		return outputError("incoming", err)
	}
	return outputResult(CLIResult{Command: "incoming", Results: calls})
}

func runOutgoing(cmd *cobra.Command, args []string) error {
	file, pos, err := parsePosition(args[0])
	if err != nil {
		return outputError("outgoing", err)
	}
	provider, ctx, cancel, err := loadProvider()
	if err != nil {
		return outputError("outgoing", err)
	}
	defer cancel()

	calls, err := provider.OutgoingCalls(ctx, file, pos)
	if err != nil {
		return outputError("outgoing", err)
	}
	return outputResult(CLIResult{Command: "outgoing", Results: calls})
}

// scanProgress returns a progress hook that renders a bar on stderr while
// the incoming scan walks candidate files. JSON mode stays quiet so stdout
// piping isn't polluted by a TTY check that guesses wrong.
func scanProgress() func(done, total int) {
	if flagFormat != "text" {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("scanning"),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}
