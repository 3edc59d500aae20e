// Package core runs feed validations for the HTTP front end and keeps their
// reports.
//
// A [Service] owns the table schema and the validator registry. Each call to
// [Service.Validate] builds a fresh validation context (country code and
// validation date), loads the feed through package feed and turns the result
// into a [RunSummary]. Summaries are kept in memory, newest runs replacing the
// oldest, and are written to a [RunStore] when one is configured.
//
// # Concurrency
//
// A [ValidationLimiter] bounds how many feeds are validated at once. Callers
// that cannot get a slot within the wait time receive [ErrTooManyValidations].
// Within a run, tables load and validate on the loader's own worker pool.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - FEED001-FEED004: feed errors (missing, not a zip, empty, too large)
//   - RUN001-RUN005: run errors (busy, not found, bad id, cancelled, timeout)
//   - TBL001: unknown table
//   - DB001-DB003: database connectivity
//   - ERR000: unexpected error
package core
