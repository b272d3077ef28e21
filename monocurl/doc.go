// Package monocurl implements the runtime behind slide-based animation decks:
// a small expression language compiled one slide at a time, a value model
// with per-kind operation tables, functor memoization, an animation
// scheduler, and a timeline that caches the state left behind by each slide
// so edits only re-execute from the first changed slide onward.
package monocurl
