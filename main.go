package main

import "github.com/viniciussvasques/crm-innexar/cmd"

func main() {
	cmd.Init()
}
