package main

import "github.com/mj1618/desktop-uia/cmd"

func main() {
	cmd.Execute()
}
