package main

import "github.com/blacktop/go-termsixel/cmd/img2sixel/cmd"

func main() {
	cmd.Execute()
}
