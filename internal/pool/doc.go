// Package pool runs a durable producer list behind a single-writer loop.
//
// A Pool binds a genlist.List to the SQLite store and a policy. The list has
// no locking of its own, so every operation is submitted as a job to an
// unbounded queue and executed by the one goroutine running Run:
//
//	p, _ := pool.New(st, policy.Default())
//	go p.Run(ctx)
//	id, _ := p.Add(ctx, producer.Spec{Label: "a", Values: []int64{1, 2}})
//	step, _ := p.Pull(ctx)
//
// Jobs run with Run's context, not the caller's. A caller that gives up
// waiting does not cancel a job that already started, so a mutation is never
// abandoned halfway through its storage writes.
//
// Every mutation is stamped with a logical seq from the pool's Clock and
// appended to the store's event log. Nothing in the log depends on wall-clock
// time.
package pool
