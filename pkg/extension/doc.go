// Package extension defines the contract template extensions implement to
// contribute functions, filters, tests, token handlers, node visitors,
// operators, and globals to a registry.
//
// The required surface is intentionally small: an identity and five list
// accessors. Everything else is an optional capability (OperatorProvider,
// GlobalsProvider, RuntimeInitializer, Provenance) that consumers detect with
// a type assertion. Embed Base to get empty list accessors for free.
package extension
