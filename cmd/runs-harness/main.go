package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/imports_backend/config"
	"github.com/mmdatafocus/imports_backend/importer"
	"github.com/mmdatafocus/imports_backend/utils"
)

// runs-harness drives parse/generate cycles against one import run, to
// reproduce idempotency and locking issues outside the HTTP server.
//
// Example:
//
//	go run ./cmd/runs-harness \
//	  --business_id=... --run_id=42 --attempts=5 --generate
func main() {
	var (
		businessID = flag.String("business_id", "", "business_id (required)")
		userName   = flag.String("username", "runs-harness", "username")
		runID      = flag.Int("run_id", 0, "run_id (required)")
		attempts   = flag.Int("attempts", 1, "attempt count")
		sleepMS    = flag.Int("sleep_ms", 0, "sleep between attempts (ms)")
		doGenerate = flag.Bool("generate", false, "generate after the first successful parse (default: parse only)")
	)
	flag.Parse()

	if *businessID == "" || *runID == 0 {
		fmt.Fprintln(os.Stderr, "missing required flags")
		flag.Usage()
		os.Exit(2)
	}

	// Connect to DB/Redis using env config (same as server).
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	baseCtx := context.Background()
	baseCtx = utils.SetBusinessIdInContext(baseCtx, *businessID)
	baseCtx = utils.SetUserNameInContext(baseCtx, *userName)

	success := 0
	fail := 0
	for i := 1; i <= *attempts; i++ {
		cid := fmt.Sprintf("runs-harness-%02d-%d", i, time.Now().UnixNano())
		ctx := utils.SetCorrelationIdInContext(baseCtx, cid)

		run, summary, err := importer.Parse(ctx, *runID)
		if err != nil {
			fail++
			fmt.Printf("%02d cid=%s PARSE FAIL: %s\n", i, cid, err.Error())
		} else {
			success++
			fmt.Printf("%02d cid=%s PARSE OK: status=%s total=%d ready=%d distinct=%d\n",
				i, cid, run.Status, summary.Total, summary.Ready, summary.DistinctKeys)

			if *doGenerate {
				genRun, result, err := importer.Generate(ctx, *runID)
				if err != nil {
					fmt.Printf("%02d cid=%s GENERATE FAIL: %s\n", i, cid, err.Error())
				} else {
					fmt.Printf("%02d cid=%s GENERATE OK: status=%s created=%d already_exists=%d failed=%d skipped=%d\n",
						i, cid, genRun.Status, result.Created, result.AlreadyExists, result.Failed, result.Skipped)
				}
			}
		}

		if *sleepMS > 0 {
			time.Sleep(time.Duration(*sleepMS) * time.Millisecond)
		}
	}

	fmt.Printf("done: %d ok, %d failed\n", success, fail)
	if fail > 0 {
		os.Exit(1)
	}
}
