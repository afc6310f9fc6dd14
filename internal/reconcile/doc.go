// Package reconcile moves pending matches to ready by asking the video
// provider what became of each upload.
//
// A pass is commutative: concurrent passes may issue the same remote reads,
// and the ready transition is a single conditional UPDATE, so the loser of a
// race simply records no transition. Scheduler repeats passes on an interval.
package reconcile
