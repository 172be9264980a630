// Package harvester drives a harvest run over an ordered list of time
// units.
//
// Each unit is either served from its checkpoint or fetched from the
// source and checkpointed. Units are processed one at a time, with a
// politeness delay after every unit that was fetched successfully.
// Failures confined to one unit are recorded in the run and never stop
// the remaining units; only storage failures and cancellation abort a run,
// in which case the records aggregated so far are written to an emergency
// artifact before the error is returned.
//
//	h := harvester.New(store, f, artifacts, log,
//		harvester.WithPoliteness(ratelimit.NewPoliteness(3*time.Second, 5*time.Second)))
//	run, err := h.Run(ctx, units, harvester.RunOptions{})
package harvester
