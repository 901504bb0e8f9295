package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/rschlaikjer/faff/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()
	glog.Flush()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
