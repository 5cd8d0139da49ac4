// Code generated by dependgen — DO NOT EDIT.
package ev3_test

import "github.com/srgg/testify/depend"

var EV3TestSuiteTestRegistry = map[string]func(any){
	"TestMoveStepsEncoding": func(s any) { s.(*EV3TestSuite).TestMoveStepsEncoding() },
	"TestCommandEncoding": func(s any) { s.(*EV3TestSuite).TestCommandEncoding() },
	"TestPrepare": func(s any) { s.(*EV3TestSuite).TestPrepare() },
	"TestConnectRequiresConnectedDevice": func(s any) { s.(*EV3TestSuite).TestConnectRequiresConnectedDevice() },
	"TestDeviceTypeAnnouncement": func(s any) { s.(*EV3TestSuite).TestDeviceTypeAnnouncement() },
	"TestAnnouncementOnDroppedLink": func(s any) { s.(*EV3TestSuite).TestAnnouncementOnDroppedLink() },
	"TestHardwareWarnings": func(s any) { s.(*EV3TestSuite).TestHardwareWarnings() },
	"TestSensorValues": func(s any) { s.(*EV3TestSuite).TestSensorValues() },
	"TestChunkedReply": func(s any) { s.(*EV3TestSuite).TestChunkedReply() },
	"TestMonitor": func(s any) { s.(*EV3TestSuite).TestMonitor() },
	"TestExecErrors": func(s any) { s.(*EV3TestSuite).TestExecErrors() },
	"TestDisconnectCleansUp": func(s any) { s.(*EV3TestSuite).TestDisconnectCleansUp() },
}

var EV3TestSuiteTestOrder = []string{
	"TestMoveStepsEncoding",
	"TestCommandEncoding",
	"TestPrepare",
	"TestConnectRequiresConnectedDevice",
	"TestDeviceTypeAnnouncement",
	"TestAnnouncementOnDroppedLink",
	"TestHardwareWarnings",
	"TestSensorValues",
	"TestChunkedReply",
	"TestMonitor",
	"TestExecErrors",
	"TestDisconnectCleansUp",
}

var EV3TestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	dep.On("TestSensorValues", "TestDeviceTypeAnnouncement")
	dep.On("TestMonitor", "TestDeviceTypeAnnouncement")
	return dep
})

// GeneratedDependConfig returns the dependency configuration for EV3TestSuite.
// This method allows EV3TestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *EV3TestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: EV3TestSuiteTestRegistry,
		Order:    EV3TestSuiteTestOrder,
		Deps:     EV3TestSuiteDependencies,
	}
}
