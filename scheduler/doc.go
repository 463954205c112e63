// Package scheduler transcribes every segment of a run concurrently.
//
// Each job takes a slot in the local pool (bounding open segment files),
// then a slot in the provider's remote pool (at most M calls in flight and
// M starts per second), then submits through the retry policy. Results
// come back in segment order; the first failure cancels the rest.
package scheduler
