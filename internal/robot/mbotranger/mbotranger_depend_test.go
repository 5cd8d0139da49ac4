// Code generated by dependgen — DO NOT EDIT.
package mbotranger_test

import "github.com/srgg/testify/depend"

var RangerTestSuiteTestRegistry = map[string]func(any){
	"TestCommandEncoding": func(s any) { s.(*RangerTestSuite).TestCommandEncoding() },
	"TestPrepare": func(s any) { s.(*RangerTestSuite).TestPrepare() },
	"TestDriveCommands": func(s any) { s.(*RangerTestSuite).TestDriveCommands() },
	"TestSensorEvents": func(s any) { s.(*RangerTestSuite).TestSensorEvents() },
	"TestMonitor": func(s any) { s.(*RangerTestSuite).TestMonitor() },
	"TestDisconnectCleansUp": func(s any) { s.(*RangerTestSuite).TestDisconnectCleansUp() },
}

var RangerTestSuiteTestOrder = []string{
	"TestCommandEncoding",
	"TestPrepare",
	"TestDriveCommands",
	"TestSensorEvents",
	"TestMonitor",
	"TestDisconnectCleansUp",
}

var RangerTestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	return dep
})

// GeneratedDependConfig returns the dependency configuration for RangerTestSuite.
// This method allows RangerTestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *RangerTestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: RangerTestSuiteTestRegistry,
		Order:    RangerTestSuiteTestOrder,
		Deps:     RangerTestSuiteDependencies,
	}
}
