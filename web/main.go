package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/web/server"
)

func main() {
	// Parse command line flags
	envFile := flag.String("env", ".env", "Optional file of PATHTRACER_* settings")
	port := flag.Int("port", 0, "Port to serve on (overrides PATHTRACER_PORT)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	var publisher *publish.Publisher
	if cfg.S3.Enabled() {
		publisher, err = publish.NewS3Publisher(cfg.S3, renderer.NewDefaultLogger())
		if err != nil {
			log.Printf("Error configuring publishing: %v", err)
			os.Exit(1)
		}
		log.Printf("Publishing renders to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	}

	// Create and start web server
	webServer := server.NewServer(cfg, publisher)

	log.Printf("Path Tracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", cfg.Port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
