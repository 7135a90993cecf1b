// Package pipeline runs one company scan as a sequence of steps.
//
// A Pipeline executes Steps in order against a *model.ScanRun:
//
//	enumerate -> fetch+classify -> extract -> index -> notify -> persist
//
// Only the fetch step is concurrent. It hands candidate URLs to a Pool,
// which bounds in-flight fetches with errgroup.SetLimit and appends matches
// to the run in completion order. Steps after fetch do nothing when the run
// found no leak.
//
// Step failures are recorded and, with WithContinueOnError, the remaining
// steps still run. Execute then returns every step error joined.
package pipeline
