// Package optionsearch provides search helpers and a small net/http handler
// that returns JSON options for select inputs backed by long lists, such as
// countries, states and cities.
//
// The handler responds to GET and HEAD requests and supports query and limit
// parameters. Options come from a static list or from a Source evaluated per
// request.
package optionsearch
