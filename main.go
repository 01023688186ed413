package main

import "github.com/jmehdipour/teams-notify/cmd"

func main() {
	cmd.Execute()
}
