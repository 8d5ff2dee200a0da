package evaluator

import (
	"context"
	"sync"
)

type job struct {
	index int
	input *Input
}

// EvaluateAll scores every input. With more than one worker the inputs
// are spread over a worker pool; the result keeps the input order.
func (e *Evaluator) EvaluateAll(ctx context.Context, inputs []*Input, workers int) ([]Evaluation, error) {
	results := make([]Evaluation, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	if workers <= 1 || len(inputs) == 1 {
		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = e.Evaluate(in)
		}
		return results, nil
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan job, len(inputs))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					// each worker writes a distinct index
					results[j.index] = e.Evaluate(j.input)
				}
			}
		}()
	}

	for i, in := range inputs {
		jobs <- job{index: i, input: in}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
