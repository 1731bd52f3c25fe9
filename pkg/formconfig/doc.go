// Package formconfig caches per form type field descriptors fetched from the
// remote configuration service and applies administrative edits to them.
//
// Loads are idempotent: a form type is fetched once and served from the
// store's cache until a forced reload, an explicit clear or a reset to
// defaults. Mutations call the remote service first and patch the cached
// copy only after it succeeds, so a failure never corrupts cached state.
package formconfig
