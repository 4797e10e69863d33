// Package resilience groups the fault tolerance helpers used by the outbound
// adapters: feed fetching, summarization, notification and article page
// fetching. The digest pipeline itself never retries; each adapter decides
// how hard to try before reporting a scoped failure.
//
//	cb := circuitbreaker.New(circuitbreaker.FeedConfig())
//	err := retry.WithBackoff(ctx, retry.FeedConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) { return fetch(ctx) })
//	    return err
//	})
package resilience
