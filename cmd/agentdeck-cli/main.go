package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"agentdeck/internal/httpapi"
	"agentdeck/pkg/agentdeck"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: agentdeck-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                   Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  status                    Show server health and session state\n")
	fmt.Fprintf(os.Stderr, "  symbols                   List the symbol roster\n")
	fmt.Fprintf(os.Stderr, "  select <symbol>           Select a symbol on the dashboard\n")
	fmt.Fprintf(os.Stderr, "  reports <symbol>          Show panel status per tab\n")
	fmt.Fprintf(os.Stderr, "  start [-mode m] [-interval d] [symbols...]\n")
	fmt.Fprintf(os.Stderr, "                            Launch a session batch\n")
	fmt.Fprintf(os.Stderr, "  stop                      Stop the running batch\n")
	fmt.Fprintf(os.Stderr, "  positions                 List open positions\n")
	fmt.Fprintf(os.Stderr, "  orders [-page n]          List recent orders\n")
	fmt.Fprintf(os.Stderr, "\nServer address comes from AGENTDECK_ADDR (default http://localhost:8620).\n")
}

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	addr := "http://localhost:8620"
	if a := os.Getenv("AGENTDECK_ADDR"); a != "" {
		addr = a
	}
	client := agentdeck.NewClient(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("agentdeck-cli %s\n", version)

	case "status":
		err = runStatus(ctx, client)

	case "symbols":
		err = runSymbols(ctx, client)

	case "select":
		if len(os.Args) < 3 {
			err = fmt.Errorf("select needs a symbol")
			break
		}
		err = runSelect(ctx, client, os.Args[2])

	case "reports":
		if len(os.Args) < 3 {
			err = fmt.Errorf("reports needs a symbol")
			break
		}
		err = runReports(ctx, client, os.Args[2])

	case "start":
		err = runStart(ctx, client, os.Args[2:])

	case "stop":
		err = runStop(ctx, client)

	case "positions":
		err = runPositions(ctx, client)

	case "orders":
		err = runOrders(ctx, client, os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runStatus(ctx context.Context, c *agentdeck.Client) error {
	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("server:  %s (%s)\n", health.Status, health.Version)
	fmt.Printf("broker:  %s\n", health.Broker)
	if health.MarketOpen {
		fmt.Println("market:  open")
	} else if health.NextOpen > 0 {
		fmt.Printf("market:  closed, next open %s\n",
			time.UnixMilli(health.NextOpen).UTC().Format("2006-01-02 15:04 MST"))
	} else {
		fmt.Println("market:  closed")
	}
	for _, ie := range health.Integrations {
		fmt.Printf("warning: %s\n", ie.Error)
	}

	sess, err := c.Session(ctx)
	if err != nil {
		return err
	}
	if sess.ID == "" {
		fmt.Println("session: none")
		return nil
	}
	fmt.Printf("session: %s %s (%s)  llm=%d tools=%d reports=%d\n",
		sess.Symbol, sess.State, sess.ID, sess.LLMCalls, sess.ToolCalls, sess.Reports)
	return nil
}

func runSymbols(ctx context.Context, c *agentdeck.Client) error {
	dash, err := c.Dashboard(ctx)
	if err != nil {
		return err
	}
	for _, s := range dash.View.Symbols {
		marker := "  "
		if s == dash.View.Selected {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, s)
	}
	fmt.Printf("page %d/%d, %d per page\n", dash.View.Page, dash.View.PageCount, dash.View.PageSize)
	return nil
}

func runSelect(ctx context.Context, c *agentdeck.Client, symbol string) error {
	resp, err := c.SelectSymbol(ctx, strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	if !resp.Applied {
		return fmt.Errorf("%s is not on the visible page (page %d)", strings.ToUpper(symbol), resp.View.Page)
	}
	fmt.Printf("selected %s\n", resp.View.Selected)
	return nil
}

func runReports(ctx context.Context, c *agentdeck.Client, symbol string) error {
	panels, err := c.Reports(ctx, strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	for _, p := range panels {
		line := fmt.Sprintf("%-22s %-12s %s", p.Label, p.Status, p.State)
		if p.Signal != "" {
			line += "  " + strings.ToUpper(p.Signal)
		}
		fmt.Println(line)
	}
	return nil
}

func runStart(ctx context.Context, c *agentdeck.Client, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	mode := fs.String("mode", "", "session mode: single, loop, market_hours")
	interval := fs.String("interval", "", "loop interval, e.g. 30m")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := httpapi.StartSessionRequest{Mode: *mode, Interval: *interval}
	for _, s := range fs.Args() {
		req.Symbols = append(req.Symbols, strings.ToUpper(s))
	}

	if _, err := c.StartSession(ctx, req); err != nil {
		return err
	}
	fmt.Println("session batch started")
	return nil
}

func runStop(ctx context.Context, c *agentdeck.Client) error {
	resp, err := c.StopSession(ctx)
	if err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	} else {
		fmt.Println("stop requested")
	}
	return nil
}

func runPositions(ctx context.Context, c *agentdeck.Client) error {
	positions, err := c.Positions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return nil
	}
	fmt.Printf("%-8s %10s %6s %12s %10s %10s\n", "Symbol", "Qty", "Side", "MktValue", "TodayPL", "TotalPL")
	for _, p := range positions {
		fmt.Printf("%-8s %10.2f %6s %12.2f %10.2f %10.2f\n",
			p.Symbol, p.Qty, p.Side, p.MarketValue, p.TodayPL, p.TotalPL)
	}
	return nil
}

func runOrders(ctx context.Context, c *agentdeck.Client, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := c.Orders(ctx, *page)
	if err != nil {
		return err
	}
	if len(resp.Orders) == 0 {
		fmt.Printf("no orders on page %d\n", resp.Page)
		return nil
	}
	fmt.Printf("%-8s %-5s %10s %-10s %10s  %s\n", "Symbol", "Side", "Qty", "Status", "FillPx", "Created")
	for _, o := range resp.Orders {
		fmt.Printf("%-8s %-5s %10.2f %-10s %10.2f  %s\n",
			o.Symbol, o.Side, o.Qty, o.Status, o.FilledPrice,
			time.UnixMilli(o.CreatedAt).UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("page %d, %d per page\n", resp.Page, resp.PageSize)
	return nil
}
