// Package plugin defines the facts-collector plugin contract: collector
// descriptors with their configuration schemas, the structured documents
// collectors produce, and the capability set a plugin advertises to its
// host. All values crossing the host boundary are plain JSON-compatible
// data; nothing in this package performs I/O.
package plugin
