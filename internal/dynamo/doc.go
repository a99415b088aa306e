// Package dynamo provides the numeric primitives shared by the chemsim
// engine and its callers.
//
//   - [Vec3]: 3D vector with value-semantics arithmetic
//   - [Rand]: injected pseudorandom source used for thermal noise and spawning
//   - sentinel errors returned at API boundaries
//
// # Thread Safety
//
// Nothing in this package holds shared state. A [Rand] created by [NewRand]
// is not safe for concurrent use; each simulation owns its own.
package dynamo
