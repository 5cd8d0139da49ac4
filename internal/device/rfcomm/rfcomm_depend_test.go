// Code generated by dependgen — DO NOT EDIT.
package rfcomm

import "github.com/srgg/testify/depend"

var RFCOMMTestSuiteTestRegistry = map[string]func(any){
	"TestSendAndReceive": func(s any) { s.(*RFCOMMTestSuite).TestSendAndReceive() },
	"TestPause": func(s any) { s.(*RFCOMMTestSuite).TestPause() },
	"TestPeerDrop": func(s any) { s.(*RFCOMMTestSuite).TestPeerDrop() },
	"TestDisconnectAndClose": func(s any) { s.(*RFCOMMTestSuite).TestDisconnectAndClose() },
	"TestConnectFailure": func(s any) { s.(*RFCOMMTestSuite).TestConnectFailure() },
	"TestPairedAdapter": func(s any) { s.(*RFCOMMTestSuite).TestPairedAdapter() },
}

var RFCOMMTestSuiteTestOrder = []string{
	"TestSendAndReceive",
	"TestPause",
	"TestPeerDrop",
	"TestDisconnectAndClose",
	"TestConnectFailure",
	"TestPairedAdapter",
}

var RFCOMMTestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	return dep
})

// GeneratedDependConfig returns the dependency configuration for RFCOMMTestSuite.
// This method allows RFCOMMTestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *RFCOMMTestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: RFCOMMTestSuiteTestRegistry,
		Order:    RFCOMMTestSuiteTestOrder,
		Deps:     RFCOMMTestSuiteDependencies,
	}
}
