/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package main is rucatctl, a command-line client for rucat-server
// built on pkg/client. Grounded on
// r3e-network-service_layer/cmd/slctl's flag.NewFlagSet-per-subcommand
// dispatch (addr/token flags read from environment defaults, a switch
// over the first positional argument), adapted to the single-resource
// engine surface instead of slctl's many services.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rucat.dev/rucat/internal/auth"
	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/pkg/client"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	defaultAddr := getenv("RUCAT_ADDR", "http://localhost:3000")
	defaultUser := os.Getenv("RUCAT_USER")
	defaultPassword := os.Getenv("RUCAT_PASSWORD")
	defaultToken := os.Getenv("RUCAT_TOKEN")

	root := flag.NewFlagSet("rucatctl", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	addrFlag := root.String("addr", defaultAddr, "rucat-server base URL (env RUCAT_ADDR)")
	userFlag := root.String("user", defaultUser, "Basic auth username (env RUCAT_USER)")
	passwordFlag := root.String("password", defaultPassword, "Basic auth password (env RUCAT_PASSWORD)")
	tokenFlag := root.String("token", defaultToken, "Bearer token, used if user/password are unset (env RUCAT_TOKEN)")
	timeoutFlag := root.Duration("timeout", 15*time.Second, "HTTP request timeout")
	if err := root.Parse(args); err != nil {
		return usageError(err)
	}

	remaining := root.Args()
	if len(remaining) == 0 {
		return usageError(errors.New("no command specified"))
	}

	c := client.New(client.Config{
		BaseURL:     strings.TrimRight(*addrFlag, "/"),
		Credentials: credentialsFromFlags(*userFlag, *passwordFlag, *tokenFlag),
		Timeout:     *timeoutFlag,
	})

	switch remaining[0] {
	case "create":
		return handleCreate(ctx, c, remaining[1:])
	case "get":
		return handleGet(ctx, c, remaining[1:])
	case "list":
		return handleList(ctx, c, remaining[1:])
	case "delete":
		return handleDelete(ctx, c, remaining[1:])
	case "stop":
		return handleStop(ctx, c, remaining[1:])
	case "restart":
		return handleRestart(ctx, c, remaining[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError(fmt.Errorf("unknown command %q", remaining[0]))
	}
}

func credentialsFromFlags(user, password, token string) *auth.Credentials {
	if user != "" {
		return &auth.Credentials{Scheme: auth.SchemeBasic, Username: user, Password: password}
	}
	if token != "" {
		return &auth.Credentials{Scheme: auth.SchemeBearer, Token: token}
	}
	return nil
}

func handleCreate(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "engine display name (required)")
	engineType := fs.String("engine-type", string(engine.TypeSpark), "engine type")
	version := fs.String("version", "", "engine version (required)")
	configStr := fs.String("config", "", "comma separated config key=value pairs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("-name is required")
	}
	if *version == "" {
		return errors.New("-version is required")
	}
	cfg, err := parseKeyValue(*configStr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	id, err := c.CreateEngine(ctx, engine.CreateRequest{
		Name:       *name,
		EngineType: engine.Type(*engineType),
		Version:    engine.Version(*version),
		Config:     cfg,
	})
	if err != nil {
		return err
	}
	fmt.Println(id.String())
	return nil
}

func handleGet(ctx context.Context, c *client.Client, args []string) error {
	id, err := requireID(args, "get")
	if err != nil {
		return err
	}
	info, err := c.GetEngine(ctx, id)
	if err != nil {
		return err
	}
	return prettyPrint(info)
}

func handleList(ctx context.Context, c *client.Client, _ []string) error {
	ids, err := c.ListEngines(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id.String())
	}
	return nil
}

func handleDelete(ctx context.Context, c *client.Client, args []string) error {
	id, err := requireID(args, "delete")
	if err != nil {
		return err
	}
	return c.DeleteEngine(ctx, id)
}

func handleStop(ctx context.Context, c *client.Client, args []string) error {
	id, err := requireID(args, "stop")
	if err != nil {
		return err
	}
	return c.StopEngine(ctx, id)
}

func handleRestart(ctx context.Context, c *client.Client, args []string) error {
	id, err := requireID(args, "restart")
	if err != nil {
		return err
	}
	return c.RestartEngine(ctx, id)
}

func requireID(args []string, cmd string) (engine.Id, error) {
	if len(args) < 1 {
		return engine.Id{}, fmt.Errorf("%s: engine id required", cmd)
	}
	return engine.NewId(args[0])
}

// parseKeyValue parses "k1=v1,k2=v2" into a Config, matching slctl's
// comma-separated flag convention.
func parseKeyValue(s string) (engine.Config, error) {
	if s == "" {
		return nil, nil
	}
	cfg := engine.Config{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		cfg[k] = v
	}
	return cfg, nil
}

func prettyPrint(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usageError(err error) error {
	printUsage()
	return err
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  rucatctl create -name <name> -version <version> [-engine-type Spark] [-config k=v,...]
  rucatctl get <engine-id>
  rucatctl list
  rucatctl delete <engine-id>
  rucatctl stop <engine-id>
  rucatctl restart <engine-id>

Flags (apply to all commands):
  -addr string      rucat-server base URL (env RUCAT_ADDR)
  -user string       Basic auth username (env RUCAT_USER)
  -password string   Basic auth password (env RUCAT_PASSWORD)
  -token string       Bearer token, used if -user is unset (env RUCAT_TOKEN)
  -timeout duration  HTTP request timeout`)
}
