/*
Package cli provides the helpers shared by the intellimap commands.

Output formatting renders command results as text, JSON or YAML:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Values that implement TextWriter control their own text rendering; anything
else is printed with %v.

Errors carry process exit codes. ExitCode maps any error returned by a
command to the code main should exit with:

	if err := root.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

SignalContext returns a context cancelled on SIGINT or SIGTERM, so an
interrupted batch stops at its next wait.
*/
package cli
