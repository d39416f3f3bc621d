package main

import "github.com/jjenkins/husbandry/cmd"

func main() {
	cmd.Execute()
}
