// Command zlend supplies a stablecoin from the operator's wallet to a lending pool
// and optionally withdraws it again.
//
// Usage:
//
//	zlend --config config.yaml
//	zlend --network linea --approval exact
//
// The private key is read from ZLEND_PRIVATE_KEY (a .env file in the working
// directory is loaded first) or asked for interactively.
package main

import (
	"os"

	"github.com/vadiminshakov/zlend/cmd/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
