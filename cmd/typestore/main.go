// Command typestore manages runtime-defined types and their entities.
package main

import "github.com/mesh-intelligence/typestore/internal/cli"

func main() {
	cli.Execute()
}
