// Package ai defines the embedding collaborator contract consumed by the
// document graph engine, along with its configuration. Production
// implementations live in the openai subpackage; deterministic test doubles
// live in the mock subpackage.
package ai
