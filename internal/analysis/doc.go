// Package analysis characterizes recorded trajectories.
//
//   - [Spectrum] and [DominantFrequency]: power spectrum of one coordinate
//     of one particle, useful for orbital periods of bound pairs
//   - [Divergence]: exponential growth rate of the separation between two
//     trajectories started from nearby states
//   - [Perturb]: nudge one state component to seed such a pair
//
// # Sensitivity
//
// A clearly positive divergence rate means small changes in the initial
// state grow exponentially:
//
//	rate, _, err := analysis.Divergence(base, perturbed)
//	if rate > 0 {
//	    // chaotic over this window
//	}
package analysis
