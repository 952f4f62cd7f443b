// Package exitcodes defines the exit codes moonspec terminates with.
//
//   - Success (0): every test passed
//   - TestFailure (1): one or more tests failed or produced no usable result
//   - RuntimeErr (2): configuration errors, panics, or other operational
//     failures unrelated to test outcomes
package exitcodes

const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
