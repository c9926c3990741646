// Package catalog loads the flat data file that every other component reads.
//
// # Overview
//
// The catalog is a CSV file with a header row. Each data row becomes a Record
// and the position of that row (zero-based, header excluded) is the record's
// canonical index. The recommendation service addresses items by that index, so
// the order produced here must never change for the lifetime of a Store.
//
// # Sources
//
// Load accepts:
//
//   - a local path, with ~ expansion ("~/whiskey_data.csv")
//   - a file:// URL
//   - an http:// or https:// URL, fetched with the caller's context
//
// # Column Mapping
//
// Header names are matched exactly (case-sensitive):
//
//	name, price, rating, category, description,
//	similarity_score, preprocessed_description
//
// Missing columns or short rows yield empty strings; a missing or unparsable
// similarity_score yields 0. Price and rating are not converted to numbers.
//
// # Failure
//
// Load never returns a partial catalog. A transport error, a non-2xx status, an
// empty body (ErrEmptyBody) or a header without a name column
// (ErrMissingNameColumn) all return a nil Store, which callers treat as a
// catalog that is not ready yet.
package catalog
