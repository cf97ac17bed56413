// Package scene is an in-process stand-in for the host application's
// scene: a graph of named transforms owning mesh and locator shapes, a
// current selection, and world-space queries. It answers exactly the
// questions the command compiler asks (what is selected, where is an
// object, does a transform own a mesh) so the front-end core can run and
// be tested without the real host.
package scene
