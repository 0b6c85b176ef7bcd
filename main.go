package main

import "github.com/opencard/pkcs15mw/cmd"

func main() {
	cmd.Execute()
}
