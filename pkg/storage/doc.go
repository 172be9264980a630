// Package storage writes the run-level JSON artifacts of a harvest into the
// output directory:
//
//   - <YYYY-MM-DD>.json: every record of a multi-unit run, in unit order,
//     named by the date the run started
//   - latest.json: the records of the most recent daily run
//   - <YYYY-MM-DD_HHMMSS>.emergency.json: the in-memory aggregate of a run
//     that aborted
//
// All files are replaced atomically through WriteFileAtomic, which the
// checkpoint package shares.
package storage
