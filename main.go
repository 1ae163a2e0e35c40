package main

import "github.com/shono-io/edgeship/cmd"

func main() {
	cmd.Execute()
}
