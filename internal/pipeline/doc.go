// Package pipeline orchestrates one batch run: asset resolution, task
// enumeration, bounded concurrent execution through the overlay engine, and
// the end-of-run summary.
//
// Configuration problems (missing shared asset, absent input, unreadable
// manifest) are returned as errors before any task runs. Everything that
// goes wrong inside a task becomes a Failed result and never stops the
// other tasks.
package pipeline
