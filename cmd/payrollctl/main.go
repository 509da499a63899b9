// Command payrollctl drives the payroll console from a terminal. The session
// survives between runs in a local state file.
package main

func main() {
	Execute()
}
