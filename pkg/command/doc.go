// Package command turns a fracture parameter set, the current selection
// and the registered positions into the hadan engine command, and parses
// such commands back into typed invocations.
//
// Compiled commands look like
//
//	hadan -mn cube1 -ft cluster -uc 10 -pc 3 -sc 4 -flp 12.500000 -st GTE
//	      -rs 42 -sa 30.000000 -mbd 50.000000 -mt true -pnt 1.000000 2.000000 3.000000
//
// (shown wrapped). Flag order is fixed and part of the external contract.
package command
