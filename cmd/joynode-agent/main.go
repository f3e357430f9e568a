package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/joynode/cmd/joynode-agent/app"
)

func main() {
	app.NewApp().Run()
}
