// Package oracle turns free-form user text into typed routing decisions and
// structured field extractions for the workflow engine.
//
// Every decision point has a closed set of valid labels (or a fixed field
// set) that is validated at this boundary: an answer outside the set is an
// error, never a silent default. The concrete implementation calls the Groq
// chat completions API in JSON mode, one schema per decision.
package oracle
