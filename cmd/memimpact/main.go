package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BTBurke/memimpact/monitor"
)

func main() {

	rootArg, opts := monitor.ParseCommandLine()

	mon, err := monitor.New(rootArg, opts...)
	if len(err) > 0 {
		fmt.Println("Error in config:")
		for _, e := range err {
			fmt.Println(e)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mon.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "memimpact:", err)
		os.Exit(1)
	}

	os.Exit(0)
}
