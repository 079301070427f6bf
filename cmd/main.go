// Command imgcachectl is a small operator CLI around pkg/imgcache,
// with init/load/remove/down subcommands for the cache's lifecycle.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"imgcache/pkg/config"
	"imgcache/pkg/fsutil"
	"imgcache/pkg/imgcache"
)

func printRootHelp() {
	fmt.Println(`imgcachectl - operate an on-disk image cache

Usage:
  imgcachectl <command> [options]

Available Commands:
  init      Write a default config YAML
  load      Load one or more URLs into the cache and print the result
  remove    Remove a URL from the cache
  down      Signal the process owning a cache directory to shut down
  help      Show help for a command

Run 'imgcachectl help <command>' for details on a specific command.`)
}

func main() {
	if len(os.Args) < 2 {
		printRootHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		cmdInit(os.Args[2:])
	case "load":
		cmdLoad(os.Args[2:])
	case "remove":
		cmdRemove(os.Args[2:])
	case "down":
		cmdDown(os.Args[2:])
	case "help":
		printRootHelp()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printRootHelp()
		os.Exit(1)
	}
}

func loadConfig(path string) config.Options {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to resolve config path: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file not found: %s\n", absPath)
		os.Exit(1)
	}
	opts, err := config.Load(absPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to load config: %v\n", err)
		os.Exit(1)
	}
	return opts
}

func cmdInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "imgcache.config.yaml", "path to write the default configuration YAML")
	fs.Parse(args)

	if err := config.WriteDefault(*path); err != nil {
		fmt.Fprintf(os.Stderr, "unable to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote default config to %s\n", *path)
}

func cmdLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", "imgcache.config.yaml", "path to configuration YAML file")
	timeout := fs.Duration("timeout", 30*time.Second, "how long to wait for each URL's callback")
	fs.Parse(args)

	urls := fs.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: imgcachectl load [--config path] url [url...]")
		os.Exit(1)
	}

	opts := loadConfig(*configPath)

	type result struct {
		url   string
		bytes int
	}
	results := make(chan result, len(urls)*2)

	cache, err := imgcache.Open(opts, func(url string, bytes []byte) {
		results <- result{url: url, bytes: len(bytes)}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open cache: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	for _, u := range urls {
		cache.Load(u)
	}

	deadline := time.After(*timeout)
	for i := 0; i < len(urls); i++ {
		select {
		case r := <-results:
			fmt.Printf("%s: %d bytes\n", r.url, r.bytes)
		case <-deadline:
			fmt.Fprintf(os.Stderr, "timed out waiting for callbacks\n")
			os.Exit(1)
		}
	}
}

func cmdRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", "imgcache.config.yaml", "path to configuration YAML file")
	fs.Parse(args)

	urls := fs.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: imgcachectl remove [--config path] url [url...]")
		os.Exit(1)
	}

	opts := loadConfig(*configPath)
	cache, err := imgcache.Open(opts, func(string, []byte) {})
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open cache: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	for _, u := range urls {
		cache.Remove(u)
		fmt.Printf("removed %s\n", u)
	}
}

func cmdDown(args []string) {
	fs := flag.NewFlagSet("down", flag.ExitOnError)
	configPath := fs.String("config", "imgcache.config.yaml", "path to configuration YAML file")
	fs.Parse(args)

	opts := loadConfig(*configPath)
	if err := fsutil.SignalOwner(opts.StorageDir); err != nil {
		fmt.Fprintf(os.Stderr, "unable to signal cache owner at %s: %v\n", opts.StorageDir, err)
		os.Exit(1)
	}
	fmt.Printf("signaled shutdown for cache at %s\n", opts.StorageDir)
}
