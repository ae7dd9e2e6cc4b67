package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"lcm-hq/intellimap/pkg/catalog"
	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/config"
	"lcm-hq/intellimap/pkg/format"
)

var validateFlags struct {
	targetsFile string
	targets     []string
}

var validateCmd = &cobra.Command{
	Use:   "validate [input...]",
	Short: "Check configuration, targets and input formats",
	Long: `Validate the configuration without calling Azure OpenAI.

Reports missing Azure settings, checks the target field catalog when
--targets or --target is given, and prints the detected format of each input.

Examples:
  # Check config and environment
  intellimap validate --config intellimap.yaml

  # Also check targets and inputs
  intellimap validate --targets fields.txt data/*.txt`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.targetsFile, "targets", "t", "", "file of target fields to check")
	validateCmd.Flags().StringArrayVar(&validateFlags.targets, "target", nil, "target field to check (repeatable)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("config", err.Error())
	}
	fmt.Fprintln(out, "✓ configuration valid")

	problems := 0
	resolver, closers, err := newResolver(&cfg.Secrets, slog.Default())
	if err != nil {
		return cli.NewConfigError("secrets", err.Error())
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	az, err := resolveAzure(cmd.Context(), resolver, cfg.Azure)
	if err == nil {
		err = config.RequireAzure(&az)
	}
	if err != nil {
		problems++
		fmt.Fprintf(out, "✗ azure: %v\n", err)
	} else {
		fmt.Fprintf(out, "✓ azure deployment %s at %s\n", az.Deployment, az.Endpoint)
	}

	if validateFlags.targetsFile != "" || len(validateFlags.targets) > 0 {
		targets, err := loadTargets(validateFlags.targetsFile, validateFlags.targets)
		if err != nil {
			return err
		}
		cat, err := catalog.Parse(targets)
		if err != nil {
			problems++
			fmt.Fprintf(out, "✗ targets: %v\n", err)
		} else {
			fmt.Fprintf(out, "✓ %d target fields\n", cat.Len())
		}
	}

	if len(args) > 0 {
		parser := format.NewParser(format.WithBlacklist(cfg.Parsing.Blacklist))
		for _, path := range args {
			src, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				problems++
				fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				continue
			}
			f, recs, err := parser.Parse(string(src.Data))
			if err != nil {
				problems++
				fmt.Fprintf(out, "✗ %s: %v\n", src.Name, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s: %s, %d records\n", src.Name, f, len(recs))
		}
	}

	if problems > 0 {
		return cli.NewConfigError("validate", fmt.Sprintf("%d problems found", problems))
	}
	return nil
}
