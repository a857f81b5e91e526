// Command qbridgectl talks to a running bridge and builds resource URLs.
package main

import "github.com/GriffinCanCode/qbridge/cmd/qbridgectl/command"

func main() {
	command.Execute()
}
