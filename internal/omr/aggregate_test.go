package omr_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omrscan/internal/omr"
)

// rangedVision answers each region call according to the question range named
// in the prompt, so assertions stay independent of completion order.
type rangedVision struct {
	mu        sync.Mutex
	byRange   map[string]string
	failRange string
	calls     int
}

func (v *rangedVision) Generate(_ context.Context, prompt string, _ []byte, _ string) (string, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	for marker, text := range v.byRange {
		if strings.Contains(prompt, marker) {
			if marker == v.failRange {
				return "", errors.New("model timed out")
			}
			return text, nil
		}
	}
	return "", errors.New("no stubbed response for prompt")
}

func fiveRegions() []omr.Region {
	ranges := [][2]int{{1, 10}, {11, 20}, {21, 30}, {31, 40}, {41, 50}}
	regions := make([]omr.Region, 0, len(ranges))
	for _, r := range ranges {
		regions = append(regions, omr.Region{
			Image:       []byte("crop"),
			ContentType: "image/png",
			Start:       r[0],
			End:         r[1],
		})
	}
	return regions
}

func stubbedRanges() map[string]string {
	out := make(map[string]string)
	for _, r := range [][2]int{{1, 10}, {11, 20}, {21, 30}, {31, 40}, {41, 50}} {
		responses := make([]string, 0, 10)
		for q := r[0]; q <= r[1]; q++ {
			responses = append(responses, fmt.Sprintf("%q:%q", fmt.Sprint(q), "A"))
		}
		marker := fmt.Sprintf("%d through %d", r[0], r[1])
		out[marker] = fmt.Sprintf(`{"responses":{%s}}`, strings.Join(responses, ","))
	}
	return out
}

func TestAggregate_AllRegionsMerge(t *testing.T) {
	vision := &rangedVision{byRange: stubbedRanges()}
	agg := omr.NewAggregator(omr.NewProcessor(vision), 3)

	merged, errs := agg.Aggregate(context.Background(), fiveRegions(), nil)

	assert.Empty(t, errs)
	assert.Len(t, merged, 50)
	assert.Equal(t, "A", merged["1"])
	assert.Equal(t, "A", merged["50"])
	assert.Equal(t, 5, vision.calls)
}

func TestAggregate_OneRegionFailureDoesNotVoidOthers(t *testing.T) {
	vision := &rangedVision{byRange: stubbedRanges(), failRange: "21 through 30"}
	agg := omr.NewAggregator(omr.NewProcessor(vision), 2)

	merged, errs := agg.Aggregate(context.Background(), fiveRegions(), nil)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "range 21-30:")
	assert.Contains(t, errs[0], "model timed out")

	assert.Len(t, merged, 40)
	for _, q := range []string{"1", "10", "11", "20", "31", "40", "41", "50"} {
		assert.Equal(t, "A", merged[q], "question %s", q)
	}
	for q := 21; q <= 30; q++ {
		_, present := merged[fmt.Sprint(q)]
		assert.False(t, present, "question %d should be absent", q)
	}
}

func TestAggregate_SequentialLimitStillProcessesAll(t *testing.T) {
	vision := &rangedVision{byRange: stubbedRanges()}
	agg := omr.NewAggregator(omr.NewProcessor(vision), 0) // clamped to 1

	merged, errs := agg.Aggregate(context.Background(), fiveRegions(), omr.Key{"1": "A"})

	assert.Empty(t, errs)
	assert.Len(t, merged, 50)
}

func TestAggregate_EmptyRegionList(t *testing.T) {
	vision := &rangedVision{byRange: stubbedRanges()}
	agg := omr.NewAggregator(omr.NewProcessor(vision), 4)

	merged, errs := agg.Aggregate(context.Background(), nil, nil)

	assert.Empty(t, merged)
	assert.Empty(t, errs)
	assert.Equal(t, 0, vision.calls)
}

func TestAggregate_MergeKeysNormalized(t *testing.T) {
	vision := &rangedVision{byRange: map[string]string{
		"1 through 10": `{"responses":{"01":"B"," 2 ":"C"}}`,
	}}
	agg := omr.NewAggregator(omr.NewProcessor(vision), 1)

	merged, errs := agg.Aggregate(context.Background(), []omr.Region{
		{Image: []byte("crop"), ContentType: "image/png", Start: 1, End: 10},
	}, nil)

	assert.Empty(t, errs)
	assert.Equal(t, omr.ResponseMap{"1": "B", "2": "C"}, merged)
}
