// Package pipeline drives a dubbing run through its stages: extract,
// separate, transcribe, translate, synthesize, fit, mix, remux. Each stage
// lands the run on a durable status and leaves its artifacts in the run work
// directory, so an interrupted run resumes at the last finished stage.
package pipeline
