// Code generated by dependgen — DO NOT EDIT.
package device_test

import "github.com/srgg/testify/depend"

var DeviceTestSuiteTestRegistry = map[string]func(any){
	"TestConnect": func(s any) { s.(*DeviceTestSuite).TestConnect() },
	"TestConnectWhileConnecting": func(s any) { s.(*DeviceTestSuite).TestConnectWhileConnecting() },
	"TestConnectFailure": func(s any) { s.(*DeviceTestSuite).TestConnectFailure() },
	"TestDisconnect": func(s any) { s.(*DeviceTestSuite).TestDisconnect() },
	"TestSend": func(s any) { s.(*DeviceTestSuite).TestSend() },
	"TestDataHandlers": func(s any) { s.(*DeviceTestSuite).TestDataHandlers() },
	"TestFrameCallbackSendsOnVanishedSocket": func(s any) { s.(*DeviceTestSuite).TestFrameCallbackSendsOnVanishedSocket() },
	"TestHandleError": func(s any) { s.(*DeviceTestSuite).TestHandleError() },
	"TestGetSocket": func(s any) { s.(*DeviceTestSuite).TestGetSocket() },
	"TestPauseAndCharacteristicWrite": func(s any) { s.(*DeviceTestSuite).TestPauseAndCharacteristicWrite() },
}

var DeviceTestSuiteTestOrder = []string{
	"TestConnect",
	"TestConnectWhileConnecting",
	"TestConnectFailure",
	"TestDisconnect",
	"TestSend",
	"TestDataHandlers",
	"TestFrameCallbackSendsOnVanishedSocket",
	"TestHandleError",
	"TestGetSocket",
	"TestPauseAndCharacteristicWrite",
}

var DeviceTestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	dep.On("TestConnectWhileConnecting", "TestConnect")
	dep.On("TestDisconnect", "TestConnect")
	dep.On("TestSend", "TestConnect")
	dep.On("TestFrameCallbackSendsOnVanishedSocket", "TestConnect")
	dep.On("TestHandleError", "TestConnect")
	dep.On("TestPauseAndCharacteristicWrite", "TestConnect")
	return dep
})

// GeneratedDependConfig returns the dependency configuration for DeviceTestSuite.
// This method allows DeviceTestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *DeviceTestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: DeviceTestSuiteTestRegistry,
		Order:    DeviceTestSuiteTestOrder,
		Deps:     DeviceTestSuiteDependencies,
	}
}
