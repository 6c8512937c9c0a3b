package main

import "github.com/Robson-tech/docker-lsa/cmd"

func main() {
	cmd.Execute()
}
