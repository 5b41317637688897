package main

import "github.com/nguyentranbao-ct/chat-notify/cmd"

func main() {
	cmd.Execute()
}
