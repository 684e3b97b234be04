package main

import "github.com/juststeveking/vpnwatch/cmd"

func main() {
	cmd.Execute()
}
