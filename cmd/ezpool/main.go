package main

import "github.com/pgvanniekerk/ezpool/cmd"

func main() {
	cmd.Execute()
}
