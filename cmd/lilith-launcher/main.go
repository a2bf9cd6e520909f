package main

import "github.com/oshokin/lilith-launcher/cmd/lilith-launcher/cmd"

func main() {
	cmd.Execute()
}
