// Package sync delivers the normalized table of a run to the downstream
// synchronization endpoint.
//
// The whole table is sent as one JSON array in a single POST. There is no
// retry: a failed delivery is reported as a *DeliveryError and the run is
// marked as partially failed. Each request carries the run id in the
// X-Run-ID header so the receiver can recognize a redelivered run.
//
// A 2xx response body is kept as the delivery confirmation. It is expected to
// be JSON; anything else is logged as a warning and still counts as success.
package sync
