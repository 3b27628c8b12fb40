package main

import "github.com/nestegg-finance/backend/cmd"

func main() {
	cmd.Execute()
}
