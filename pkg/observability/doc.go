// Package observability provides observer implementations that translate
// run progress events into metrics and structured logs. Everything here is
// best-effort by contract: an observer must never slow down or fail a run.
package observability
