package main

import (
	"log"

	tool "github.com/cdlite/portal-api/internal/tools/portalctl"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
