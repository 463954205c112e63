// Package chunker splits a transcript into token-bounded chunks for
// per-chunk summarization.
//
// Chunks prefer to end just after a period. Each window starts from a
// naive boundary maxTokens past the current position and moves to the
// nearest period token within a search window on either side; ties go
// backward. Decoding every chunk in order reproduces the input exactly.
//
// A diagnostic pass logs when the longest period-to-period stretch is
// longer than maxTokens, since that sentence is cut mid-way.
package chunker
