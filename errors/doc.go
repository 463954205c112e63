// Package errors provides the typed error used across the pipeline.
// Every failure carries a machine-readable Code and a Kind that decides how
// callers react: retry transient provider failures, abort the run on
// everything else.
package errors
