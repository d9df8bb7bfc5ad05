// Command inventario is the operator front end for counting stock into
// inventario.csv.
package main

import "github.com/mesh-intelligence/inventario/internal/cli"

func main() {
	cli.Execute()
}
