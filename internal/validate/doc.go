// Package validate implements the file validation engine: delimiter
// inference, quote-aware line tokenization, the streaming delimited-file
// validator, the JSON structural checker, duplicate-row grouping, and
// the report aggregate they populate.
//
// The package has no UI or network dependencies and can be driven by any
// frontend. A validation run is synchronous: the caller supplies a file
// path and options, the validator streams through the file invoking the
// optional progress callback, and returns a populated Report. Early exit
// is cooperative, via a one-shot Flag polled between rows; the Report is
// always left in a consistent state with partial findings intact.
package validate
