// Package recommend is the HTTP client for the similarity service.
//
// A request names the selected record by its position in the catalog file and
// carries the price ceiling:
//
//	POST /predict
//	{"index": 12, "maxPrice": 1000}
//
// The service answers with a JSON array of records, most similar first. The
// client never reorders or filters that array. Numeric cells are kept as their
// display text and bare NaN or Infinity tokens are read as missing values. An
// element without a similarity_score key makes the whole response malformed.
//
// An unbounded ceiling has no JSON spelling, so the encoding is configurable
// (see Unbounded). The default writes the bare Infinity token, which Python's
// json module accepts.
//
// Instrumented decorates any Recommender with zap logging and Prometheus
// counters from the metrics package.
package recommend
