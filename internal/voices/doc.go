// Package voices assigns each diarized speaker a stable synthesis voice:
// a run-level cloning reference, a reference extracted from the speaker's
// longest clean segment, or a built-in default voice, in that order.
package voices
