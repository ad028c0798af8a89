package main

import "challenge-replayer/internal/bootstrap"

func main() {
	bootstrap.NewApp().Run()
}
