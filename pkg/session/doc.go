/*
Package session persists editing sessions and serializes access to them.

A session is the (model, diagram) pair of one client. The Manager stores it as an
opaque JSON snapshot through a ports.SessionStore and guards every read-modify-write
with a per-session mutex, plus an optional ports.DistributedLocker when several
replicas share the store.
*/
package session
