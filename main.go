package main

import "github.com/givebridge/ms-go-donations/cmd"

func main() {
	cmd.Execute()
}
