// Package erp is a small ERP system of record for the Beer Game chain.
//
// It serves the product catalogue, supplier list and period history over a
// JSON HTTP API, and provides a Client that the twin uses to record periods
// and the simulator uses to load its starting snapshot.
package erp
