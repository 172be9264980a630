// Package ratelimit paces traffic to the upstream paper index.
//
// RequestLimiter wraps golang.org/x/time/rate and keeps individual page
// requests at least one interval apart (arXiv asks for 3 seconds).
// Politeness is the coarser, jittered pause the harvester takes after each
// unit it actually fetched; cached units never wait.
package ratelimit
