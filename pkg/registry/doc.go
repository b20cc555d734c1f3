// Package registry aggregates template extensions into a single flat symbol
// table.
//
// A Registry starts in the Building state, accepting extensions and directly
// staged symbols. The first resolution query (Function, Filter, Test,
// TokenHandlers, NodeVisitors, the operator getters, or an explicit Init)
// runs the aggregation pass exactly once and freezes the registry. From then
// on registration fails with ErrLocked and every query reads precomputed
// tables, so a frozen registry is safe for concurrent readers.
//
// Name collisions resolve last-write-wins: later extensions shadow earlier
// ones, and symbols staged directly on the registry are merged last.
// Functions and filters additionally resolve through wildcard patterns such
// as "asset_*" and then through registered fallback resolvers; tests only
// ever match verbatim.
package registry
