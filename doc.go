/*
Package parley is a step-driven conversational front-end for a remote text-generation service.

A conversation walks a small graph of steps: a prompt is shown, the user types a question,
the question is forwarded to an answer provider (Gemini by default) and the answer is shown
before looping back to the prompt. While the provider works, the conversation shows a loading
placeholder; when it fails, a fixed failure message is shown instead and the loop continues.

# Concept

The Engine owns the step graph and the answer provider. Each Conversation owns its state
(question, answer, generating flag) and is driven by the host through three calls:

  - Enter renders the current step. Prompt and response steps advance on their own.
  - OnUserInput submits text at the input step and blocks until the answer settles.
  - Snapshot captures the session for persistence; Engine.Resume restores it.

# Usage

	eng, err := parley.New(gemini.NewClient(apiKey))
	if err != nil {
		log.Fatal(err)
	}

	conv, _ := eng.Start(ctx, "session-123")
	for {
		views, err := conv.Advance(ctx) // prompt, then the input step
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(views[0].Content)

		question := readLine()
		if err := conv.OnUserInput(ctx, question); err != nil {
			log.Fatal(err)
		}

		answer, _ := conv.Enter(ctx)
		fmt.Println(answer.Content)
	}
*/
package parley
