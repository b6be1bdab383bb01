/*
Package datasheet provides data sheet loading and indexing.

The data sheet is the published set of routes, stops, cross-operator stop
mappings, service-day definitions and public holidays. This package accepts
raw bytes, an io.Reader, a local file or a URL, gzip compressed or not, and
builds an in-memory Index.

# Basic Usage

	index, err := datasheet.NewIndexFromFile("data.json.gz")
	if err != nil {
	    log.Fatal(err)
	}
	stop, ok := index.Stop("18492910339410B1")
	keys := index.RouteKeysForNumber("1A")

# Performance: Cache the Index

Parse the data sheet once at startup and keep the index in memory. Set
dataSheet.cachePath to keep a gob copy on disk so that restarts skip the
download and JSON decode:

	index, err := datasheet.NewIndexFromConfig(ctx, cfg.SelectSource(""))

Route order is significant: when two branches share a service type, the one
listed first in routeList wins. The order is recorded while decoding and
survives the gob cache.

# Thread Safety

An Index is immutable after construction and safe for concurrent reads.
*/
package datasheet
