// Package checkpoint stores the per-unit results of a harvest.
//
// A checkpoint maps a unit key (YYYY-MM-DD) to the JSON array of records
// fetched for that unit. The existence of a checkpoint is the only signal
// that a unit is complete; an empty array is a complete checkpoint.
//
// Two backends implement Store:
//   - FileStore keeps one <key>.json file per unit in a directory and
//     replaces files atomically (temp file, fsync, rename).
//   - RedisStore keeps each payload under <prefix>:<key> and maintains a
//     <prefix>:keys index set, updated in the same MULTI/EXEC transaction.
package checkpoint
