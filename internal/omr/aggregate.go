package omr

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Region is one cropped image covering a contiguous question range.
type Region struct {
	Image       []byte
	ContentType string
	Start       int
	End         int
}

// Aggregator drives independent range-scoped region calls and merges their
// responses. A damaged crop must not void the whole sheet, so failures are
// collected as error strings instead of aborting the batch.
type Aggregator struct {
	proc        *Processor
	concurrency int
}

// NewAggregator creates an Aggregator with the given fan-out limit.
// A limit below 1 means sequential processing.
func NewAggregator(proc *Processor, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{proc: proc, concurrency: concurrency}
}

// Aggregate processes every region and returns the merged per-question
// responses plus one formatted error entry per failed region. It always
// returns both; whether a partial merge is acceptable is the caller's call.
//
// Regions run concurrently up to the fan-out limit. Completion order does not
// matter: responses merge by their own question numbers, and ranges are
// disjoint by construction of the caller.
func (a *Aggregator) Aggregate(ctx context.Context, regions []Region, refKey Key) (ResponseMap, []string) {
	results := make([]Result, len(regions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.concurrency)
	for i, region := range regions {
		wg.Add(1)
		go func(i int, region Region) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.proc.Process(ctx, region.Image, region.ContentType,
				QuestionRange(region.Start, region.End), refKey)
		}(i, region)
	}
	wg.Wait()

	merged := make(ResponseMap)
	var errs []string
	for i, res := range results {
		region := regions[i]
		if res.Failed() {
			errs = append(errs, fmt.Sprintf("range %d-%d: %s", region.Start, region.End, res.Failure.Message))
			log.Printf("omr.Aggregator: range %d-%d failed: %s", region.Start, region.End, res.Failure.Message)
			continue
		}
		for q, answer := range res.Extraction.Responses {
			merged[NormalizeQuestion(q)] = answer
		}
	}
	return merged, errs
}
