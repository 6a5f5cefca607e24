/*
Package runner drives a parley conversation from a terminal or any other
line-oriented stream.

The Runner enters steps until one awaits input, hands the views to an
IOHandler, reads a question, submits it and repeats. `exit`, `quit` and EOF
end the session; blank lines re-prompt.

# Key Components

  - Runner: the read-submit-render loop, with optional snapshot persistence.
  - IOHandler: decouples the loop from the wire format.
  - TextHandler: interactive terminal I/O with an optional markdown renderer.
  - JSONHandler: newline-delimited JSON for scripted hosts.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithSessionID("user-1"),
		runner.WithStore(store),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
