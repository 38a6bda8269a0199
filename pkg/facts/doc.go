// Package facts contains the built-in collectors of the plugin. Every
// collector is stateless across invocations: values are computed fresh per
// call, resources are released on all exit paths, and any blocking system
// query uses a bounded wait. Collectors degrade category by category: an
// unavailable source is reported inside the document rather than failing
// the whole collection.
package facts
