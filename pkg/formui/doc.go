/*
Package formui holds the in-memory form tree of a form session and keeps it in sync with
the server.

A Form is built once from a server payload. Every later round-trip is applied with
Reconcile, which walks the new descriptors pairwise by index and updates nodes in place
when their type is unchanged, so anything holding a *Question or *Group keeps a valid
reference. Nodes whose type changed are rebuilt, extra nodes are dropped and missing ones
appended. One change event is fired per mutated node.

User answers are debounced per question: repeated calls to SetAnswer within the throttle
interval collapse into a single AnswerEvent carrying the last value.
*/
package formui
