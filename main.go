// tzcompare compares the time across time zones side by side.
//
// Usage:
//
//	tzcompare init --seed        # Create the config and add sample cities
//	tzcompare add Tokyo JST      # Add a location
//	tzcompare show               # Live view, arrow keys move the home hour
//	tzcompare serve              # Web dashboard
package main

import "github.com/agent-platform/tools/tzcompare/cmd"

func main() {
	cmd.Execute()
}
