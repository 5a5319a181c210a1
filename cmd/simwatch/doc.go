// Command simwatch is a CLI for monitoring and steering batches of simulated
// phone calls: inspecting batch state, allocating phone-number slots,
// driving re-analysis to convergence, and watching a batch live.
package main
