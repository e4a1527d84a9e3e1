/*
Package session implements form session management and persistence orchestration.

A Manager owns one live formui.Form per session id. It serializes access to each session
with reference-counted local locks, optionally backed by a distributed lock, persists a
snapshot after every mutation and routes server responses to the form they belong to.

Answer notifications leave a form through its debounce timer. The Manager forwards them
to the configured answer transport and to the session's subscribers on the Broker.
*/
package session
