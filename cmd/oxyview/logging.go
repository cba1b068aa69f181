package main

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/log"
	"github.com/urfave/cli"
)

var logger = log.New("oxyview")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("verbose") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	renderer.Debug = ctx.GlobalBool("debug")
}
