package main

import "sentra/internal/app/server"

func main() {
	server.Run()
}
