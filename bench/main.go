package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fumin/entropy/report"
)

var pattern = flag.String("data", "data/*", "glob pattern selecting input files")
var out = flag.String("o", "results/results.csv", "path of the CSV report")
var verify = flag.Bool("verify", false, "additionally decode and confirm that output = input")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("%v", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer f.Close()

	cfg := report.Config{Pattern: *pattern, Verify: *verify}
	if err := report.Run(cfg, f); err != nil {
		log.Fatalf("%+v", err)
	}
}
