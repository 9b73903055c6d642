// Package acl holds the anti-corruption layer between the sales context and
// the remote services it depends on: document numbering (owned by the
// configuration service), stock (owned by the inventory service) and store
// credit (owned by the customer service).
//
// The interfaces are defined here, in the domain, and implemented in the
// infrastructure layer, following the Dependency Inversion Principle. None
// of these collaborators share a transaction with the sales store; every
// call can fail independently and the orchestration layer owns the
// compensation policy.
package acl
