// Package sim provides a discrete-time, stochastic agent-based epidemic
// simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - agent.go: the per-agent state machine (susceptible → incubation →
//     illness → hospital/ICU → recovered/dead) and exposure collection
//   - disease.go: the stochastic disease model (severity, durations,
//     infectiousness, death probabilities)
//   - clock.go: the day-stepping orchestrator, worker dispatch and the
//     exposure merge pass
//
// # Architecture
//
// Every simulated day runs in two phases. Phase 1 is strictly sequential:
// due interventions are applied and the testing queue is drained, mutating
// shared queue state and the bed/ICU pools. Phase 2 advances every agent
// concurrently across a worker pool; cross-agent effects (exposures) and
// claims on the contended bed/ICU pools are only collected there and
// resolved afterwards in a sequential merge pass in deterministic order,
// so a run's aggregate outcomes are bit-identical for a fixed seed under
// any worker count.
//
// Failures detected inside the concurrent phase cannot propagate across
// worker boundaries; they are recorded into a sticky first-error-wins cell
// and escalated to a fatal, run-terminating error after the phase joins.
// A day that records a problem is corrupted: there is no retry and no
// partial-day rollback, and the clock refuses further iteration.
//
// Randomness is partitioned (rng.go): every subsystem and every agent owns
// an isolated stream derived from the master seed, so drawing from one
// never perturbs another.
package sim
