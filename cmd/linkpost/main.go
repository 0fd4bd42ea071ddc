package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/linkpost/pkg/app"

	authcmder "github.com/papercomputeco/linkpost/cmd/linkpost/auth"
	configcmder "github.com/papercomputeco/linkpost/cmd/linkpost/config"
	querycmder "github.com/papercomputeco/linkpost/cmd/linkpost/query"
	servecmder "github.com/papercomputeco/linkpost/cmd/linkpost/serve"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const linkpostLongDesc string = `linkpost is an MCP server that lets an agent publish LinkedIn posts,
generate images, search the web and query a local SQLite database.

Run 'linkpost auth' once to obtain a LinkedIn access token, then point your
MCP client at 'linkpost serve'.`

func newLinkpostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "linkpost",
		Short:         "MCP server for publishing to LinkedIn",
		Long:          linkpostLongDesc,
		Version:       version,
		SilenceUsage:  true,
	}

	app.AddPersistentFlags(cmd)

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newLinkpostCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
