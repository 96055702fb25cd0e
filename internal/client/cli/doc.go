// Package cli implements the interactive GophDiary client: a small REPL that
// signs users up and in, turns typed conversations into diary entries and
// browses them. The session token and the last diary list are kept in the
// local cache so a restart keeps the session and "list" works offline.
package cli
