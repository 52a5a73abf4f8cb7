// Package main provides the CLI entrypoint for vigcrack.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/eivanovue/cryptography/internal/config"
	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/generator"
	"github.com/eivanovue/cryptography/internal/model"
	"github.com/eivanovue/cryptography/internal/report"
	"github.com/eivanovue/cryptography/internal/source"
	"github.com/eivanovue/cryptography/internal/store"
	"github.com/eivanovue/cryptography/internal/tui"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

const (
	defaultKeyLen       = 3
	defaultParallel     = 1
	defaultHistoryLimit = 20
)

var (
	crackKeyLen      int
	crackText        string
	crackFile        string
	crackPassThrough bool
	crackParallel    int
	crackTable       string
	crackFoldCase    bool
	crackVerbose     bool
	crackNoSave      bool
	crackColor       bool
	crackHistogram   bool

	cipherKey         string
	cipherRandomKey   int
	cipherText        string
	cipherFile        string
	cipherPassThrough bool
	cipherFoldCase    bool

	tableName string
	tableOut  string

	historyLast   int
	historyKeyLen int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vigcrack",
		Short:         "Recover Vigenère keys by frequency analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runCrackCmd,
	}

	addAnalysisFlags(rootCmd)
	rootCmd.Flags().BoolVarP(&crackVerbose, "verbose", "v", false, "print per-position statistics")
	rootCmd.Flags().BoolVar(&crackNoSave, "no-save", false, "do not record the run in history")
	rootCmd.Flags().BoolVar(&crackColor, "color", false, "force coloured output")
	rootCmd.Flags().BoolVar(&crackHistogram, "histogram", false, "print each position's letter distribution against the reference table")

	rootCmd.AddCommand(newEncryptCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&crackKeyLen, "key-len", "n", defaultKeyLen, "key length to recover")
	cmd.Flags().StringVarP(&crackText, "text", "t", "", "ciphertext (default: read --file or stdin)")
	cmd.Flags().StringVarP(&crackFile, "file", "f", "", "read ciphertext from file")
	cmd.Flags().BoolVar(&crackPassThrough, "pass-through", false, "keep non-letters in the plaintext")
	cmd.Flags().IntVar(&crackParallel, "parallel", defaultParallel, "score key positions with up to N goroutines")
	cmd.Flags().StringVar(&crackTable, "table", "", "reference table name or path (default: English)")
	cmd.Flags().BoolVar(&crackFoldCase, "fold-case", false, "uppercase input before analysis")
}

// loadAnalysisConfig merges the config file into the analysis flags.
func loadAnalysisConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "key-len", &crackKeyLen, fileCfg.Analysis.KeyLen)
	applyBoolConfig(cmd, "pass-through", &crackPassThrough, fileCfg.Analysis.PassThrough)
	applyIntConfig(cmd, "parallel", &crackParallel, fileCfg.Analysis.Parallel)
	applyStringConfig(cmd, "table", &crackTable, fileCfg.Analysis.Table)
	applyBoolConfig(cmd, "fold-case", &crackFoldCase, fileCfg.Analysis.FoldCase)

	save := !crackNoSave
	if fileCfg.History.Enabled != nil && !*fileCfg.History.Enabled {
		save = false
	}
	cfg := model.Config{
		KeyLen:      crackKeyLen,
		PassThrough: crackPassThrough,
		Parallel:    crackParallel,
		TablePath:   config.ResolveTablePath(crackTable),
		FoldCase:    crackFoldCase,
		Save:        save,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// analyze resolves the input and table for cfg and runs the engine.
func analyze(cmd *cobra.Command, cfg model.Config) (string, freq.Table, vigenere.Result, error) {
	text, err := readInput(cmd.InOrStdin(), crackText, crackFile)
	if err != nil {
		return "", freq.Table{}, vigenere.Result{}, err
	}
	ciphertext := source.Prepare(text, cfg.FoldCase)
	table, err := freq.Resolve(cfg.TablePath)
	if err != nil {
		return "", freq.Table{}, vigenere.Result{}, fmt.Errorf("failed to load reference table: %w", err)
	}
	res, err := vigenere.Analyze(ciphertext, cfg.KeyLen, table,
		vigenere.WithParallel(cfg.Parallel),
		vigenere.WithPassThrough(cfg.PassThrough),
	)
	if err != nil {
		return "", freq.Table{}, vigenere.Result{}, fmt.Errorf("failed to analyze ciphertext: %w", err)
	}
	return ciphertext, table, res, nil
}

func runCrackCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}
	ciphertext, table, res, err := analyze(cmd, cfg)
	if err != nil {
		return err
	}

	opts := report.Options{Color: crackColor, Cosets: crackVerbose}
	if err := report.RenderResult(cmd.OutOrStdout(), res, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if crackHistogram {
		for _, c := range res.Cosets {
			if _, err := fmt.Fprintln(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := report.RenderHistogram(cmd.OutOrStdout(), c, table, crackColor); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}

	if !cfg.Save {
		return nil
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db, run not saved: %v\n", err)
		return nil
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	seen, err := st.FindByDigest(ctx, store.Digest(ciphertext))
	if err != nil {
		logErrf("failed to look up earlier runs: %v\n", err)
	} else if len(seen) > 0 {
		logErrf("Ciphertext seen before in %d run(s), latest key %s (length %d)\n", len(seen), seen[0].Key, seen[0].KeyLen)
	}
	run, cosets := store.NewRun(ciphertext, res, cfg.TablePath)
	if _, err := st.InsertRun(ctx, run, cosets); err != nil {
		logErrf("failed to save run: %v\n", err)
	}
	return nil
}

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt text with a key",
		Args:  cobra.NoArgs,
		RunE:  runEncryptCmd,
	}
	addCipherFlags(cmd)
	cmd.Flags().IntVar(&cipherRandomKey, "random-key", 0, "generate a random key of length N")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt text with a known key",
		Args:  cobra.NoArgs,
		RunE:  runDecryptCmd,
	}
	addCipherFlags(cmd)
	return cmd
}

func addCipherFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cipherKey, "key", "k", "", "key of letters A-Z")
	cmd.Flags().StringVarP(&cipherText, "text", "t", "", "input text (default: read --file or stdin)")
	cmd.Flags().StringVarP(&cipherFile, "file", "f", "", "read input from file")
	cmd.Flags().BoolVar(&cipherPassThrough, "pass-through", false, "keep non-letters in the output")
	cmd.Flags().BoolVar(&cipherFoldCase, "fold-case", false, "uppercase input first")
}

func runEncryptCmd(cmd *cobra.Command, _ []string) error {
	if cipherRandomKey < 0 {
		return fmt.Errorf("--random-key must be > 0")
	}
	key := strings.ToUpper(cipherKey)
	if cipherRandomKey > 0 {
		if cipherKey != "" {
			return fmt.Errorf("--key and --random-key are mutually exclusive")
		}
		key = generator.New().Key(cipherRandomKey)
		logErrf("Key: %s\n", key)
	}
	return runCipher(cmd, key, vigenere.Encrypt)
}

func runDecryptCmd(cmd *cobra.Command, _ []string) error {
	return runCipher(cmd, strings.ToUpper(cipherKey), vigenere.Decrypt)
}

func runCipher(cmd *cobra.Command, key string, apply func(text, key string, passThrough bool) string) error {
	if key == "" {
		return fmt.Errorf("--key must not be empty")
	}
	if !vigenere.ValidKey(key) {
		return fmt.Errorf("--key must contain only letters A-Z")
	}
	text, err := readInput(cmd.InOrStdin(), cipherText, cipherFile)
	if err != nil {
		return err
	}
	out := apply(source.Prepare(text, cipherFoldCase), key, cipherPassThrough)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table [corpus files...]",
		Short: "Build a reference frequency table from corpus text",
		RunE:  runTableCmd,
	}
	cmd.Flags().StringVar(&tableName, "name", "", "table name stored in the file")
	cmd.Flags().StringVarP(&tableOut, "out", "o", "", "write to a table name or path instead of stdout")
	return cmd
}

func runTableCmd(cmd *cobra.Command, args []string) error {
	var counts [freq.Letters]int
	addCounts := func(text string) error {
		c, err := freq.Count(strings.NewReader(text))
		if err != nil {
			return err
		}
		for i := range counts {
			counts[i] += c[i]
		}
		return nil
	}
	if len(args) == 0 {
		text, err := source.Read(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		if err := addCounts(text); err != nil {
			return fmt.Errorf("failed to count letters: %w", err)
		}
	}
	for _, path := range args {
		text, err := source.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read corpus: %w", err)
		}
		if err := addCounts(text); err != nil {
			return fmt.Errorf("failed to count letters in %s: %w", path, err)
		}
	}
	table, err := freq.FromCounts(counts)
	if err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}

	if tableOut == "" {
		return table.WriteTOML(cmd.OutOrStdout(), tableName)
	}
	outPath := config.ResolveTablePath(tableOut)
	name := tableName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(outPath), ".toml")
	}
	if err := writeTable(outPath, table, name); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logErrf("Wrote %s\n", outPath)
	return nil
}

func writeTable(path string, table freq.Table, name string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create table dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "table-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := table.WriteTOML(writer, name); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Adjust a recovered key interactively",
		Args:  cobra.NoArgs,
		RunE:  runExploreCmd,
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runExploreCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}
	if crackText == "" && crackFile == "" {
		return fmt.Errorf("explore needs --text or --file; stdin is used for the terminal")
	}
	ciphertext, table, res, err := analyze(cmd, cfg)
	if err != nil {
		return err
	}

	var st *store.Store
	if cfg.Save {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			logErrf("failed to open db, saving disabled: %v\n", err)
			st = nil
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()
		}
	}

	m := tui.NewModel(ciphertext, res, table, cfg.TablePath, cfg.PassThrough, st)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\n", m.Key()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLimit, "limit to last N runs (0 for all)")
	cmd.Flags().IntVar(&historyKeyLen, "key-len", 0, "only runs with this key length")
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	})
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "last", &historyLast, fileCfg.History.Limit)
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	runs, err := st.ListRuns(context.Background(), model.HistoryConfig{Last: historyLast, KeyLen: historyKeyLen})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if err := report.RenderHistory(cmd.OutOrStdout(), runs, time.Now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	run, cosets, err := st.GetRun(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logErrln("Run: vigcrack history")
		}
		return fmt.Errorf("failed to load run %q: %w", args[0], err)
	}
	if err := report.RenderRun(cmd.OutOrStdout(), run, cosets, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// readInput returns text, the contents of path, or all of stdin, in that order.
func readInput(stdin io.Reader, text, path string) (string, error) {
	if text != "" && path != "" {
		return "", fmt.Errorf("--text and --file are mutually exclusive")
	}
	if text != "" {
		return text, nil
	}
	if path != "" {
		data, err := source.LoadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}
	data, err := source.Read(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# vigcrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[analysis]
# key-len = %d            # Key length to recover
# pass-through = false    # Keep non-letters in the plaintext
# parallel = %d           # Goroutines used to score key positions
# table = "corpus"        # Reference table name (under tables/) or path; unset uses English
# fold-case = false       # Uppercase input before analysis

[history]
# enabled = true          # Record runs in the history database
# limit = %d              # Default number of runs shown by 'vigcrack history'
`,
		defaultKeyLen,
		defaultParallel,
		defaultHistoryLimit,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.KeyLen <= 0 {
		return fmt.Errorf("--key-len must be > 0")
	}
	if cfg.Parallel < 0 {
		return fmt.Errorf("--parallel must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
