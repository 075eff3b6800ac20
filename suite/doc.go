// Package suite defines the prime-order group collaborator used by the
// commitment pipeline and a build-time registry of implementations.
//
// A suite bundles a group, its hash-to-curve and hash-to-scalar functions and
// a canonical compressed encoding for elements and scalars. The pipeline never
// performs curve arithmetic itself; it only talks to a Suite.
//
// Implementations register themselves in init():
//
//	suite.MustRegister(New())
//
// and binaries enable them with blank imports, e.g.
//
//	import _ "xdao.co/jcommit/suite/p256"
package suite
