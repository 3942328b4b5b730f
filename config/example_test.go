package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sagarc03/sendfile/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Root: %s\n", cfg.Server.Port, cfg.Send.Root)
	// Output: Port: 5708, Root: ./public
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved port: %d\n", retrieved.Server.Port)
	// Output: Retrieved port: 5708
}

func ExampleSendConfig_Options() {
	send := config.SendConfig{
		Root:         "/srv/www",
		Index:        []any{"index.html", "index.htm"},
		Extensions:   "html",
		MaxAge:       "30d",
		ETag:         true,
		AcceptRanges: true,
	}

	opts, err := send.Options()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(opts.Index.Names(), opts.Extensions.List(), opts.MaxAge)
	// Output: [index.html index.htm] [html] 720h0m0s
}
