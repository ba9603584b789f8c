// This program performs administrative tasks against a ledger node.
package main

import "github.com/ardanlabs/utxochain/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
