// Code generated by dependgen — DO NOT EDIT.
package sphero_test

import "github.com/srgg/testify/depend"

var SpheroTestSuiteTestRegistry = map[string]func(any){
	"TestEncoding": func(s any) { s.(*SpheroTestSuite).TestEncoding() },
	"TestPrepare": func(s any) { s.(*SpheroTestSuite).TestPrepare() },
	"TestV1Unlock": func(s any) { s.(*SpheroTestSuite).TestV1Unlock() },
	"TestRollKeepsState": func(s any) { s.(*SpheroTestSuite).TestRollKeepsState() },
	"TestCalibration": func(s any) { s.(*SpheroTestSuite).TestCalibration() },
	"TestStop": func(s any) { s.(*SpheroTestSuite).TestStop() },
	"TestLocation": func(s any) { s.(*SpheroTestSuite).TestLocation() },
	"TestCollision": func(s any) { s.(*SpheroTestSuite).TestCollision() },
	"TestAcknowledgements": func(s any) { s.(*SpheroTestSuite).TestAcknowledgements() },
	"TestDisconnect": func(s any) { s.(*SpheroTestSuite).TestDisconnect() },
	"TestUnsupportedCommand": func(s any) { s.(*SpheroTestSuite).TestUnsupportedCommand() },
}

var SpheroTestSuiteTestOrder = []string{
	"TestEncoding",
	"TestPrepare",
	"TestV1Unlock",
	"TestRollKeepsState",
	"TestCalibration",
	"TestStop",
	"TestLocation",
	"TestCollision",
	"TestAcknowledgements",
	"TestDisconnect",
	"TestUnsupportedCommand",
}

var SpheroTestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	dep.On("TestDisconnect", "TestPrepare")
	return dep
})

// GeneratedDependConfig returns the dependency configuration for SpheroTestSuite.
// This method allows SpheroTestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *SpheroTestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: SpheroTestSuiteTestRegistry,
		Order:    SpheroTestSuiteTestOrder,
		Deps:     SpheroTestSuiteDependencies,
	}
}
