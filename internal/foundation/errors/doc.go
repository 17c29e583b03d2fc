// Package errors provides the classified error primitives shared by every prerender stage.
//
// A ClassifiedError carries a category (what kind of failure), a severity (how
// far it propagates) and a retry strategy. The pipeline uses the category to pick
// the process exit code and the severity to decide whether a failure aborts the
// run or is only recorded in the build report.
//
// Example usage:
//
//	err := errors.SourceError("category query failed").
//		WithCause(cause).
//		WithContext("endpoint", endpoint).
//		Build()
package errors
