// Package engine wires the native loader, capability registry, dependency
// resolver and configuration manager around one native artifact.
//
// Programs normally use the process engine:
//
//	e := engine.Default()
//	if err := e.Registry().Require("radiation", "run radiation model"); err != nil {
//		return err
//	}
//
// Tests construct their own with New and never touch the process engine, or
// call ResetDefault between cases.
package engine
