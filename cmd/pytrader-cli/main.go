package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"pytrader/internal/domain"
	"pytrader/pkg/pytrader"
)

const version = "0.1.0"

func serverURL() string {
	if v := os.Getenv("PYTRADER_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: pytrader-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version              Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  status               Show pytrader-server readiness\n")
	fmt.Fprintf(os.Stderr, "  account              Show account information\n")
	fmt.Fprintf(os.Stderr, "  positions            List open positions\n")
	fmt.Fprintf(os.Stderr, "  quote SYMBOL...      Fetch latest quotes\n")
	fmt.Fprintf(os.Stderr, "  order [options]      Submit an order (see order -h)\n")
	fmt.Fprintf(os.Stderr, "  orders [-limit N]    List journaled orders\n")
	fmt.Fprintf(os.Stderr, "\nServer address is taken from PYTRADER_SERVER (default http://localhost:8080).\n")
}

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := pytrader.NewClient(serverURL())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("pytrader-cli %s\n", version)

	case "status":
		err = runStatus(ctx, client)

	case "account":
		err = runAccount(ctx, client)

	case "positions":
		err = runPositions(ctx, client)

	case "quote":
		err = runQuote(ctx, client, os.Args[2:])

	case "order":
		err = runOrder(ctx, client, os.Args[2:])

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

func runStatus(ctx context.Context, client *pytrader.Client) error {
	ready, err := client.Health(ctx)
	if err != nil {
		return err
	}
	if ready {
		fmt.Println("status: ready")
	} else {
		fmt.Println("status: degraded (gateway not connected)")
	}
	return nil
}

func runAccount(ctx context.Context, client *pytrader.Client) error {
	info, err := client.GetAccount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Account:         %s (%s)\n", info.AccountNumber, info.Status)
	fmt.Printf("Equity:          %s\n", info.Equity)
	fmt.Printf("Buying power:    %s\n", info.BuyingPower)
	fmt.Printf("Cash:            %s\n", info.Cash)
	fmt.Printf("Portfolio value: %s\n", info.PortfolioValue)
	fmt.Printf("Day trades:      %d\n", info.DaytradeCount)
	return nil
}

func runPositions(ctx context.Context, client *pytrader.Client) error {
	positions, err := client.GetPositions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return nil
	}
	fmt.Printf("%-8s %10s %12s %12s %12s %9s\n",
		"SYMBOL", "QTY", "AVG ENTRY", "CURRENT", "MKT VALUE", "P/L %")
	for _, p := range positions {
		current := "-"
		if p.CurrentPrice != nil {
			current = fmt.Sprintf("%.2f", *p.CurrentPrice)
		}
		fmt.Printf("%-8s %10.2f %12.2f %12s %12.2f %8.2f%%\n",
			p.Symbol, p.Qty, p.AvgEntryPrice, current, p.MarketValue, p.UnrealizedPLPC)
	}
	return nil
}

func runQuote(ctx context.Context, client *pytrader.Client, symbols []string) error {
	if len(symbols) == 0 {
		return fmt.Errorf("quote: at least one symbol required")
	}
	quotes, err := client.GetQuotes(ctx, symbols)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		fmt.Println("no quotes available")
		return nil
	}
	fmt.Printf("%-8s %10s %8s %10s %8s  %s\n", "SYMBOL", "BID", "BIDSZ", "ASK", "ASKSZ", "TIME")
	for _, q := range quotes {
		fmt.Printf("%-8s %10.2f %8d %10.2f %8d  %s\n",
			q.Symbol, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize,
			q.Timestamp.Format(time.RFC3339))
	}
	return nil
}

func runOrder(ctx context.Context, client *pytrader.Client, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	symbol := fs.String("symbol", "", "symbol to trade (required)")
	qty := fs.String("qty", "", "quantity, fractional allowed (required)")
	side := fs.String("side", "buy", "buy or sell")
	otype := fs.String("type", "market", "market, limit, stop or stop_limit")
	tif := fs.String("tif", "day", "time in force: day, gtc, opg, cls, ioc, fok")
	limitPrice := fs.String("limit", "", "limit price (limit and stop_limit orders)")
	stopPrice := fs.String("stop", "", "stop price (stop and stop_limit orders)")
	clientOrderID := fs.String("client-order-id", "", "optional client order ID")
	fs.Parse(args)

	qd, err := decimal.NewFromString(*qty)
	if err != nil {
		return fmt.Errorf("invalid -qty %q: %w", *qty, err)
	}

	req := domain.OrderRequest{
		Symbol:        *symbol,
		Qty:           qd,
		Side:          domain.Side(*side),
		Type:          domain.OrderType(*otype),
		TimeInForce:   domain.TimeInForce(*tif),
		ClientOrderID: *clientOrderID,
	}
	if *limitPrice != "" {
		d, err := decimal.NewFromString(*limitPrice)
		if err != nil {
			return fmt.Errorf("invalid -limit %q: %w", *limitPrice, err)
		}
		req.LimitPrice = &d
	}
	if *stopPrice != "" {
		d, err := decimal.NewFromString(*stopPrice)
		if err != nil {
			return fmt.Errorf("invalid -stop %q: %w", *stopPrice, err)
		}
		req.StopPrice = &d
	}

	res, err := client.SubmitOrder(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("order %s: %s %s %s %s (%s)\n",
		res.ID, res.Side, res.Qty, res.Symbol, res.Type, res.Status)
	return nil
}

func runOrders(ctx context.Context, client *pytrader.Client, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max entries to list (0 = server default)")
	fs.Parse(args)

	orders, err := client.ListOrders(ctx, *limit)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no journaled orders")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("%-24s %-4s %8s %-8s %-10s %-10s %s\n",
			o.ID, o.Side, o.Qty, o.Symbol, o.Type, o.Status, o.CreatedAt)
	}
	return nil
}
