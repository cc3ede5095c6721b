package pool_test

import (
	"context"
	"fmt"

	"github.com/pgvanniekerk/ezpool/pool"
)

func ExampleNewPool() {
	p, err := pool.NewPool(1)
	if err != nil {
		panic(err)
	}
	defer p.Shutdown(context.Background())

	for i := 1; i <= 3; i++ {
		_ = p.Submit(func() { fmt.Println("task", i) })
	}
	if err := p.AwaitIdle(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println("completed", p.Stats().Completed)

	// Output:
	// task 1
	// task 2
	// task 3
	// completed 3
}
