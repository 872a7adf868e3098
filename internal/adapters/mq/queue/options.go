package queue

type config struct {
	capacity     int
	instrumented bool
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*config)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithInstrumentation turns the queue metrics on or off. Only the session
// inbox reports queue metrics; other queues switch them off.
func WithInstrumentation(enabled bool) Option {
	return func(c *config) {
		c.instrumented = enabled
	}
}
