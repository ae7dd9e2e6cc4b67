package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/format"
	"lcm-hq/intellimap/pkg/records"
	"lcm-hq/intellimap/pkg/telemetry/logging"
)

var detectFlags struct {
	output     string
	structured bool
}

var detectCmd = &cobra.Command{
	Use:   "detect [input...]",
	Short: "Show the detected format and parsed records",
	Long: `Detect the format of each input and print the records it parses into,
without calling Azure OpenAI. Useful for checking what a file will send.

Examples:
  # Inspect a delimited dictionary file
  intellimap detect records.txt

  # Parse stdin and print YAML
  cat data.json | intellimap detect -o yaml`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectFlags.output, "output", "o", "text", "output format (text, json, yaml)")
	detectCmd.Flags().BoolVar(&detectFlags.structured, "structured", false, "decode JSON inputs into mappings before detection")
}

type fieldView struct {
	Key   string  `json:"key" yaml:"key"`
	Value *string `json:"value" yaml:"value"`
}

type recordView struct {
	ID     string      `json:"id" yaml:"id"`
	Fields []fieldView `json:"fields" yaml:"fields"`
}

// detectReport is the parse result of one input.
type detectReport struct {
	Input   string       `json:"input" yaml:"input"`
	Format  string       `json:"format" yaml:"format"`
	Records []recordView `json:"records" yaml:"records"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r *detectReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %s (%d records)\n", r.Input, r.Format, len(r.Records))
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	for i, rec := range r.Records {
		fmt.Fprintf(w, "  [%d] %s\n", i, rec.ID)
		for _, f := range rec.Fields {
			v := "null"
			if f.Value != nil {
				v = fmt.Sprintf("%q", *f.Value)
			}
			fmt.Fprintf(w, "      %s = %s\n", f.Key, v)
		}
	}
	return nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	outFormat, err := cli.ParseOutputFormat(detectFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(&cfg.Telemetry.Logging)
	if err != nil {
		return err
	}

	sources, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("detect", err)
	}

	parser := format.NewParser(
		format.WithBlacklist(cfg.Parsing.Blacklist),
		format.WithLogger(logger.Slog()),
	)
	formatter := cli.NewFormatter(outFormat)

	var failed error
	for _, src := range sources {
		rep := detectSource(parser, src, detectFlags.structured, logger)
		if rep.Error != "" && failed == nil {
			failed = fmt.Errorf("%s: %s", rep.Input, rep.Error)
		}
		if err := formatter.FormatTo(cmd.OutOrStdout(), rep); err != nil {
			return cli.NewCommandError("detect", err)
		}
	}
	if failed != nil {
		return cli.NewCommandError("detect", failed)
	}
	return nil
}

func detectSource(parser *format.Parser, src inputSource, structured bool, logger *logging.Logger) *detectReport {
	rep := &detectReport{Input: src.Name, Records: []recordView{}}

	in, err := rawInput(src, structured)
	if err != nil {
		rep.Format = format.FormatUnknown.String()
		rep.Error = err.Error()
		return rep
	}
	f, recs, err := parser.ParseInput(in)
	rep.Format = f.String()
	if err != nil {
		rep.Error = err.Error()
		logger.Debug("input not parsed", "input", src.Name, "format", rep.Format, "error", err)
		return rep
	}
	for _, rec := range recs {
		rep.Records = append(rep.Records, viewRecord(rec))
	}
	return rep
}

func viewRecord(rec *records.Record) recordView {
	v := recordView{ID: rec.ID(), Fields: make([]fieldView, 0, rec.Len())}
	for _, k := range rec.Keys() {
		val, _ := rec.Get(k)
		v.Fields = append(v.Fields, fieldView{Key: k, Value: val})
	}
	return v
}
