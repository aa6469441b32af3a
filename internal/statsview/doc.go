// Package statsview serves live runtime charts (heap, goroutines, GC) while
// a timeline plays. It is only built in with the statsview build tag; the
// default build has a stub whose Available reports false.
//
// After launch the charts are at:
//
//	localhost:12600/debug/statsview
//
// and the standard pprof pages at:
//
//	localhost:12600/debug/pprof/
package statsview
