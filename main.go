package main

import "github.com/bl-nkd-v/trench-radar-discord-bot/cmd"

func main() {
	cmd.Execute()
}
