// Package params holds the fracture configuration edited by the user:
// the active fracture type with the parameters of every variant, the
// slicer backend and the engine options. Every setter validates its
// input, so a Set handed to the command compiler is always in range.
package params
