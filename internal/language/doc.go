// Package language maps ISO 639-1 codes to the code variants each external
// model expects: NLLB-200 script-tagged codes for translation and XTTS v2
// codes for synthesis.
package language
