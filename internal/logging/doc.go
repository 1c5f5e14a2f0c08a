// Package logging builds the slog loggers used across the pipeline: a
// human-oriented console handler for interactive runs and a JSON handler for
// log files and automation, with helpers to enrich records with run, stage,
// segment, and speaker identity carried on the context.
package logging
