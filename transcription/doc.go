// Package transcription defines the provider contract for speech-to-text
// services and the normalized result shape every adapter returns.
//
// Adapters live in subpackages and are registered by id:
//
//   - openai: OpenAI and Groq audio transcription APIs
//   - deepgram: Deepgram pre-recorded audio API with diarization
//   - gemini: Gemini file upload followed by generateContent
//   - whisper: faster-whisper HTTP sidecar
//
// Cue helpers turn word timings or subtitle markup into the two-line cue
// form: a start timestamp line followed by an optional "Speaker N: text"
// line.
package transcription
