// Package scheduler decides, per submission, whether a runner starts now,
// waits in a queue, supersedes another runner or is refused.
//
// A Scheduler guards one logical operation slot. Its Strategy picks the
// admission rule:
//
//   - Default starts every submission alongside the others.
//   - Restartable cancels the active runner and starts the new one.
//   - Enqueue runs submissions one at a time in FIFO order.
//   - Drop cancels a submission that arrives while a runner is active.
//   - KeepLatest keeps at most one queued successor, cancelling the older one.
//
// Every runner a Scheduler builds is driven inside the scheduler's scope, so
// Wait joins all of them. A runner's terminal event, whatever its kind, is
// what advances a queue.
package scheduler
