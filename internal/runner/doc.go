// Package runner is the agent core. It turns one user message into one
// response envelope.
//
// A turn holds the thread's lock for its whole duration and runs:
//
//	history -> context -> window -> model <-> tools (bounded) -> shaper -> append
//
// Tool calls requested in one reply run sequentially in the order given, and
// every call's observation is sent back in a single user message right after
// the assistant message that requested them. Adapter failures become error
// observations; only model failures and the round cap abort a turn, and an
// aborted turn appends nothing to the thread.
package runner
