package main

import (
	"animebase/internal/server"
	"animebase/internal/util"
	"animebase/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(debug)

	server.Init()
}
