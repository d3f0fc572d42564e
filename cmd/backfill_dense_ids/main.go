package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/yungbote/contentstream-backend/internal/app"
)

type typeList []string

func (l *typeList) String() string { return strings.Join(*l, ",") }
func (l *typeList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var types typeList
	var batch int
	var concurrency int
	flag.Var(&types, "type", "content type to backfill (repeatable; default all configured types)")
	flag.IntVar(&batch, "batch", 500, "items per page")
	flag.IntVar(&concurrency, "concurrency", 2, "content types processed in parallel")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	identity := application.Services.Identity
	if len(types) == 0 {
		counts, err := identity.BackfillAll(ctx, batch, concurrency)
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("content_type=%s processed=%d\n", k, counts[k])
		}
		if err != nil {
			fmt.Printf("backfill failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("done")
		return
	}

	for _, ct := range types {
		n, err := identity.Backfill(ctx, ct, batch)
		fmt.Printf("content_type=%s processed=%d\n", ct, n)
		if err != nil {
			fmt.Printf("backfill %s failed: %v\n", ct, err)
			os.Exit(1)
		}
	}
	fmt.Println("done")
}
