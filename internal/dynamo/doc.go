// Package dynamo provides core simulation primitives shared by the physics,
// integration and field packages.
//
//   - [State]: flat state vector, four entries (x, y, vx, vy) per particle
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step integrator interface
//   - [Trajectory]: recorded states of one run
//   - [ParallelFor]: chunked index loop with one writer per index
//
// Failures are reported with the sentinel errors in this package, wrapped in
// [SimulationError] when a step number and time are known.
package dynamo
