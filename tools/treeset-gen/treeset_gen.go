package main

// treeset_gen.go is a tiny helper utility to generate deterministic key
// streams for standalone benchmarking of yoink trees (outside `go test`).
// It emits newline-separated int64 numbers suitable for driving repeated
// inserts. With -dist=uniform -seed=42 it emits the same stream bench's
// built-in dataset uses.
//
// Usage:
//   go run ./tools/treeset-gen -n 1000000 -dist=zipf -seed=42 -out keys.txt
//
// Flags:
//   -n       number of keys to generate (default 1e6)
//   -dist    distribution: "uniform" or "zipf" (default uniform)
//   -zipfs   Zipf s parameter (>1)  (default 1.2)
//   -zipfv   Zipf v parameter (>=1) (default 1.0)
//   -seed    RNG seed (default current time)
//   -out     output file (default stdout)
//
// Kept under version control so a contributor can regenerate the exact key
// stream used in a performance regression hunt.
//
// © 2025 yoink authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		n       = flag.Int("n", 1_000_000, "number of keys to generate")
		dist    = flag.String("dist", "uniform", "distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	rnd := rand.New(rand.NewSource(*seedVal))

	var gen func() int64
	switch *dist {
	case "uniform":
		gen = rnd.Int63
	case "zipf":
		if *zipfS <= 1.0 || *zipfV < 1 {
			fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
			os.Exit(1)
		}
		z := rand.NewZipf(rnd, *zipfS, *zipfV, 1<<62)
		gen = func() int64 { return int64(z.Uint64()) }
	default:
		fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		fmt.Fprintln(w, gen())
	}
}
