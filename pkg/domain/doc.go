/*
Package domain contains the core domain models of the parley conversation loop.

It defines the step graph, the conversation state the presentation renders, and the
request/result pair exchanged with an answer provider. The package is kept pure and
free of I/O, persistence and transport concerns.

# Key Entities

  - Step: A node in the conversation graph (Prompt, UserInput or BotResponse).
  - Trigger: The rule choosing the step that follows (Fixed or Computed).
  - ConversationState: The question, the answer and the "is generating" flag.
  - AnswerRequest / AnswerResult: One provider round-trip per user turn.
  - Snapshot: The persisted form of a session.
*/
package domain
