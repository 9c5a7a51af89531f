package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentflare-ai/jsondelta"
)

type rootFlags struct {
	configPath string
	verbose    bool
	indent     bool
	keys       []string
	lenient    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "jsondelta",
		Short:        "Compute and apply JSON Patches (RFC 6902)",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&flags.indent, "indent", false, "Indent the JSON output")

	diffCmd := &cobra.Command{
		Use:   "diff SOURCE TARGET",
		Short: "Print the patch that turns SOURCE into TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, flags, args)
		},
	}
	diffCmd.Flags().StringArrayVar(&flags.keys, "key", nil,
		"Reconcile the array at a pointer by identity fields, e.g. --key /users=id")

	applyCmd := &cobra.Command{
		Use:   "apply DOCUMENT PATCH",
		Short: "Apply PATCH to DOCUMENT and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, flags, args)
		},
	}
	applyCmd.Flags().BoolVar(&flags.lenient, "lenient", false, "Skip operations whose target is missing instead of failing")

	unchangedCmd := &cobra.Command{
		Use:   "unchanged SOURCE TARGET",
		Short: "Print the subtrees identical in SOURCE and TARGET, keyed by pointer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnchanged(cmd, flags, args)
		},
	}

	rootCmd.AddCommand(diffCmd, applyCmd, unchangedCmd)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger shared by all subcommands.
func (f *rootFlags) setup(cmd *cobra.Command) (Config, *slog.Logger, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.addKeyFlags(f.keys); err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("indent") {
		cfg.Indent = f.indent
	}
	if f.lenient {
		strict := false
		cfg.Strict = &strict
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func runDiff(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, logger, err := flags.setup(cmd)
	if err != nil {
		return err
	}
	source, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}
	target, err := readDocument(cmd, args[1])
	if err != nil {
		return err
	}
	opts, err := cfg.keyOptions()
	if err != nil {
		return err
	}
	opts = append(opts, jsondelta.WithLogger(logger))

	patch := jsondelta.Diff(source, target, opts...)
	logger.Debug("computed patch", slog.Int("operations", len(patch)), slog.Int("keySets", len(cfg.Keys)))
	return writeJSON(cmd.OutOrStdout(), patch, cfg.Indent)
}

func runApply(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, logger, err := flags.setup(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}
	patch, err := jsondelta.DecodePatch(data)
	if err != nil {
		return errors.Wrapf(err, "failed to read patch %s", args[1])
	}

	strict := cfg.Strict == nil || *cfg.Strict
	skipped := 0
	out, err := jsondelta.Apply(doc, patch,
		jsondelta.WithStrict(strict),
		jsondelta.WithLogger(logger),
		jsondelta.WithDiagnostics(func(*jsondelta.PatchError) { skipped++ }),
	)
	if err != nil {
		return err
	}
	logger.Debug("applied patch", slog.Int("operations", len(patch)), slog.Int("skipped", skipped))
	return writeJSON(cmd.OutOrStdout(), out, cfg.Indent)
}

func runUnchanged(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, _, err := flags.setup(cmd)
	if err != nil {
		return err
	}
	source, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}
	target, err := readDocument(cmd, args[1])
	if err != nil {
		return err
	}
	opts, err := cfg.keyOptions()
	if err != nil {
		return err
	}
	found := jsondelta.Unchanged(source, target, opts...)
	out := make(map[string]any, len(found))
	for ptr, v := range found {
		out[ptr.String()] = v
	}
	return writeJSON(cmd.OutOrStdout(), out, cfg.Indent)
}

// readInput reads a file, or stdin when the name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(name)
	return data, errors.Wrapf(err, "failed to read %s", name)
}

// readDocument reads a JSON or YAML document as a value tree. YAML is
// recognized by the file extension.
func readDocument(cmd *cobra.Command, name string) (any, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", name)
		}
		tree, err := jsondelta.Normalize(v)
		return tree, errors.Wrapf(err, "failed to convert %s", name)
	}
	tree, err := jsondelta.Normalize(data)
	return tree, errors.Wrapf(err, "failed to parse %s", name)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(v), "failed to write output")
}
