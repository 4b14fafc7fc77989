// Package domain contains the raffle session model and its lifecycle rules.
//
// A session moves Open -> AwaitingRandomness -> Settled and never skips or
// reverses a state. At most one session is in progress at a time; settled
// sessions are retained for history and never reopened.
package domain
