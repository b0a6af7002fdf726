// Package physics implements electrostatic dynamics of charged point particles
// in the plane.
//
//   - [Constants]: Coulomb's constant and the softening epsilon
//   - [Constants.AccelerationComponent]: softened Coulomb force law on one axis
//   - [Derivative]: d(state)/dt by all-pairs summation
//   - [Coulomb]: the same law as a [dynamo.System], plus energy and momentum
//   - [Ensemble]: particles as plain records, packed into a state vector
//
// # Units
//
// Positions are picometres, time is seconds, mass is MeV and charge is in
// elementary charges, so K = 2.533e38 MeV·pm³/(e²·s²).
//
//	sys, _ := physics.NewCoulomb([]float64{938, 0.511}, []float64{1, -1}, physics.DefaultConstants())
//	dx := sys.Derive(x, nil, 0)
package physics
