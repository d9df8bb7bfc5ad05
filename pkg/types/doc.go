// Package types defines the inventory record, folder handle, configuration,
// and standard errors shared by the inventario packages.
//
// The codec, durable store, repository, and workflows all speak in terms of
// Record and the sentinel errors declared here; callers test for failure
// kinds with errors.Is.
package types
