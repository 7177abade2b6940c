// Package providers contains the simulated shipping carriers and the
// Registry that exposes them as a ports.ProviderGateway.
//
// NRW issues labels and answers status polls. TLS issues labels only and
// pushes status changes through the webhook endpoint. Both simulate network
// latency and a small label failure rate; clocks, randomness and latency are
// injectable through Option values so tests are deterministic.
package providers
