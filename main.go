package main

import "github.com/Alijeyrad/internhub_backend/cmd"

func main() {
	cmd.Execute()
}
