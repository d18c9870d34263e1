// Package lspintar resolves Java, Kotlin, and Groovy symbols across a
// workspace, its build-tool classpath, and decompiled dependency jars.
//
// An Engine indexes source trees into a SQLite-backed Symbol Index and
// answers go-to-definition, go-to-implementation, hover, and diagnostics
// queries against it. See internal/grammar, internal/extract,
// internal/resolve, internal/implfinder, and internal/diagnostics for the
// individual pipeline stages; this package wires them together.
package lspintar
