// Code generated by dependgen — DO NOT EDIT.
package goble

import "github.com/srgg/testify/depend"

var GoBLETestSuiteTestRegistry = map[string]func(any){
	"TestScanReportsPeripherals": func(s any) { s.(*GoBLETestSuite).TestScanReportsPeripherals() },
	"TestExpiry": func(s any) { s.(*GoBLETestSuite).TestExpiry() },
	"TestConnectAndSend": func(s any) { s.(*GoBLETestSuite).TestConnectAndSend() },
	"TestPause": func(s any) { s.(*GoBLETestSuite).TestPause() },
	"TestWriteCharacteristic": func(s any) { s.(*GoBLETestSuite).TestWriteCharacteristic() },
	"TestConnectFailures": func(s any) { s.(*GoBLETestSuite).TestConnectFailures() },
	"TestDisconnect": func(s any) { s.(*GoBLETestSuite).TestDisconnect() },
	"TestNormalizeError": func(s any) { s.(*GoBLETestSuite).TestNormalizeError() },
}

var GoBLETestSuiteTestOrder = []string{
	"TestScanReportsPeripherals",
	"TestExpiry",
	"TestConnectAndSend",
	"TestPause",
	"TestWriteCharacteristic",
	"TestConnectFailures",
	"TestDisconnect",
	"TestNormalizeError",
}

var GoBLETestSuiteDependencies = depend.Depends(func(s any) *depend.Dep {
	dep := new(depend.Dep)
	return dep
})

// GeneratedDependConfig returns the dependency configuration for GoBLETestSuite.
// This method allows GoBLETestSuite to be used with depend.RunSuite(t, suite).
// DO NOT implement this method manually - it is auto-generated.
func (s *GoBLETestSuite) GeneratedDependConfig() *depend.SuiteConfig {
	return &depend.SuiteConfig{
		Registry: GoBLETestSuiteTestRegistry,
		Order:    GoBLETestSuiteTestOrder,
		Deps:     GoBLETestSuiteDependencies,
	}
}
