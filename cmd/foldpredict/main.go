package main

import "github.com/amaumene/foldpredict/internal/cli"

func main() {
	cli.Execute()
}
