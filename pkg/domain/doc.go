/*
Package domain contains the core models of the fullform runtime.

It defines the wire shapes exchanged with a form session server (node descriptors,
payloads and responses), the events published while a form is being filled, and the
client-side state that outlives a single form (display options and the per-session
navigation context). The package is kept free of I/O so every adapter can share it.

# Key Entities

  - Descriptor: one node of the form tree as sent by the server (question, group or repeat).
  - Payload: the tree plus session metadata (session id, sequence id, title, languages).
  - Response: the result of a server round-trip (accepted, validation error, new tree).
  - AnswerEvent / ChangeEvent: what the runtime publishes when answers or nodes change.
  - DisplayOptions: user preferences persisted under an environment:domain:user key.
  - SessionContext: explicit per-session state used by navigation (sticky query inputs).
*/
package domain
