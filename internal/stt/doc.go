// Package stt converts audio recordings into multi-speaker dialogue
// transcripts using Groq's Whisper API.
package stt
