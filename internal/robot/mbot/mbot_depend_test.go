// Code generated by dependgen — DO NOT EDIT.
package mbot_test

import "github.com/srgg/testify/depend"

var MBotTestSuiteTestRegistry = map[string]func(any){
	"TestCommandEncoding": func(s any) { s.(*MBotTestSuite).TestCommandEncoding() },
	"TestPrepare": func(s any) { s.(*MBotTestSuite).TestPrepare() },
	"TestConnectRequiresConnectedDevice": func(s any) { s.(*MBotTestSuite).TestConnectRequiresConnectedDevice() },
	"TestDriveCommands": func(s any) { s.(*MBotTestSuite).TestDriveCommands() },
	"TestSensorEvents": func(s any) { s.(*MBotTestSuite).TestSensorEvents() },
	"TestMonitor": func(s any) { s.(*MBotTestSuite).TestMonitor() },
	"TestStopAndDisconnect": func(s any) { s.(*MBotTestSuite).TestStopAndDisconnect() },
}

var MBotTestSuiteTestOrder = []string{
	"TestCommandEncoding",
	"TestPrepare",
	"TestConnectRequiresConnectedDevice",
	"TestDriveCommands",
	"TestSensorEvents",
	"TestMonitor",
	"TestStopAndDisconnect",
}

var MBotTestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	return dep
})

// GeneratedDependConfig returns the dependency configuration for MBotTestSuite.
// This method allows MBotTestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *MBotTestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: MBotTestSuiteTestRegistry,
		Order:    MBotTestSuiteTestOrder,
		Deps:     MBotTestSuiteDependencies,
	}
}
