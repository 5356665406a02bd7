// Command catalogctl talks to the catalog service over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/unabstore/shop/internal/auth"
	catalogv1 "github.com/unabstore/shop/pkg/api/catalog/v1"
	"github.com/unabstore/shop/pkg/client/catalog"
	"github.com/unabstore/shop/pkg/config"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

var errStop = errors.New("stop")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

// describe prefers the gRPC status message, which carries the user-facing text.
func describe(err error) string {
	var grpcErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &grpcErr) {
		if msg := grpcErr.GRPCStatus().Message(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "catalogctl",
		Usage:  "manage the shop catalog",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:9090", EnvVars: []string{"CATALOGCTL_ADDR"}, Usage: "catalog gRPC address"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "per-call timeout"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"CATALOGCTL_TOKEN"}, Usage: "bearer access token"},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list products",
				Action: withClient(func(c *cli.Context, client *catalog.Client) error {
					products, err := client.List(c.Context)
					if errors.Is(err, catalog.ErrDegraded) {
						fmt.Fprintln(c.App.ErrWriter, "warning:", err)
						err = nil
					}
					if err != nil {
						return err
					}
					return printProducts(c.App.Writer, products)
				}),
			},
			{
				Name:  "add",
				Usage: "add a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "price", Required: true},
				},
				Action: withClient(func(c *cli.Context, client *catalog.Client) error {
					product, message, err := client.Create(c.Context, c.String("name"), c.String("description"), c.String("price"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s: %s\n", message, product.ID)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a product",
				ArgsUsage: "ID",
				Action: withClient(func(c *cli.Context, client *catalog.Client) error {
					if c.NArg() != 1 {
						return cli.Exit("delete needs exactly one product ID", 2)
					}
					if err := client.Delete(c.Context, c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "deleted", c.Args().First())
					return nil
				}),
			},
			{
				Name:  "watch",
				Usage: "print a snapshot of the catalog on every change",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max", Usage: "stop after this many snapshots (0 = until interrupted)"},
				},
				Action: withClient(func(c *cli.Context, client *catalog.Client) error {
					seen := 0
					err := client.Observe(c.Context, func(s catalogv1.Snapshot) error {
						seen++
						fmt.Fprintf(c.App.Writer, "--- snapshot %d (%s)\n", seen, time.Now().Format(time.TimeOnly))
						if s.Error != "" {
							fmt.Fprintln(c.App.Writer, "error:", s.Error)
						}
						if err := printProducts(c.App.Writer, s.Products); err != nil {
							return err
						}
						if limit := c.Int("max"); limit > 0 && seen >= limit {
							return errStop
						}
						return nil
					})
					if errors.Is(err, errStop) || errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}),
			},
		},
	}
}

// dialOptions are appended to the client defaults.
func dialOptions(c *cli.Context) []grpc.DialOption {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token := c.String("token"); token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(auth.BearerCredentials{Token: token, Insecure: true}))
	}
	return opts
}

func withClient(fn func(*cli.Context, *catalog.Client) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := config.GrpcClientConfig{Addr: c.String("addr"), Timeout: c.Duration("timeout")}
		client, err := catalog.Dial(cfg, config.DefaultResilience(), dialOptions(c)...)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		return fn(c, client)
	}
}

func printProducts(w io.Writer, products []catalogv1.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.Description)
	}
	return tw.Flush()
}
