/*
Package cli provides the helpers shared by the matchgram commands.

Output Formatting:

Commands accept --format text, json or csv. Results implement Table to get
aligned text and CSV output for free, or TextWriter for a custom text form:

	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "msg")
	progress.Start(total)
	for i := range total {
		// evaluate
		progress.Update(i + 1)
	}
	progress.Finish()

Exit codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 for findings such as rules that do not compile, and 1 otherwise.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
