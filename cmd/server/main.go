package main

import "github.com/iceymoss/local-blog-genius/cmd/server/commands"

func main() {
	commands.Execute()
}
