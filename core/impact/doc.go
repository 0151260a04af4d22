// Package impact estimates what a minimum delay between two rentals of the
// same car would cost and what it would save.
//
// For a threshold in minutes and a scope (every car or connected cars only)
// Compute reports how many rentals fall inside the threshold window, how
// many of those were real scheduling conflicts the threshold would have
// prevented, the share of revenue exposed to the policy and a cost/benefit
// efficiency score. The computation is a pure function of its inputs.
package impact
