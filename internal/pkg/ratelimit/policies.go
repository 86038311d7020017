package ratelimit

// BucketConfig parameterizes a single named rate-limit policy.
type BucketConfig struct {
	Capacity   int
	RefillRate float64 // tokens per second
}

// Policies are the predefined token-bucket configurations from spec §4.9,
// generalizing the teacher's single-counter RateLimiterMiddleware
// (internal/pkg/middleware/rate_limiter.go) into named buckets shared by
// every endpoint group.
var Policies = map[string]BucketConfig{
	"public_api":       {Capacity: 100, RefillRate: 1.0},
	"auth":             {Capacity: 10, RefillRate: 0.1},
	"match_request":    {Capacity: 5, RefillRate: 0.05},
	"email":            {Capacity: 3, RefillRate: 0.01},
	"challenge_submit": {Capacity: 20, RefillRate: 0.2},
	"chat":             {Capacity: 1, RefillRate: 2.0},
}
