/*
Package metrics defines kuiperdb's Prometheus instrumentation and exposes
it at GET /metrics alongside the front end's query endpoint.

# Catalog

Transaction metrics:

	kuiperdb_tx_begun_total            counter - transactions started, by Datastore.Begin
	kuiperdb_tx_outcomes_total{outcome} counter - commit vs rollback, from Transaction.Commit/Rollback

Scan metrics:

	kuiperdb_scan_page_latency_seconds        histogram - one ScanCollection page
	kuiperdb_collection_scan_duration_seconds{collection} histogram - a full ExecuteCollectionScan call

Index metrics:

	kuiperdb_indexes_open  gauge - registered indexes, from Datastore.AddIndex/DropIndex

Query and front-end metrics:

	kuiperdb_queries_total{outcome}       counter - parsed+executed queries, ok or error
	kuiperdb_query_duration_seconds       histogram - end-to-end query execution
	kuiperdb_requests_total{status}       counter - POST / requests, ok or error

# Timer helper

Timer wraps a start time; ObserveDuration records elapsed time to a plain
histogram, ObserveDurationVec to a label-carrying one:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.CollectionScanDuration, cs.Collection)

All metrics are registered at package init via prometheus.MustRegister, so
they appear in a scrape even before any matching operation has run.
*/
package metrics
