package main

import (
	_ "github.com/eleven-am/careflow/docs"
	"github.com/eleven-am/careflow/internal/bootstrap"
)

// @title Careflow Monitor API
// @version 1.0.0
// @description Camera monitoring sessions, persisted status and care-plan events

// @BasePath /

func main() {
	bootstrap.Run()
}
