package sched

import "testing"

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{WorkerCount: 4}, false},
		{"zero workers", Config{WorkerCount: 0}, true},
		{"negative keep alive", Config{WorkerCount: 1, KeepAlive: -1}, true},
		{"rate limit missing refill", Config{WorkerCount: 1, SubmitRateLimit: &RateLimitConfig{Tokens: 10}}, true},
		{"rate limit zero tokens", Config{WorkerCount: 1, SubmitRateLimit: &RateLimitConfig{Tokens: 0, Refill: 1}}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestConfigValidateNormalizesNamePrefix(t *testing.T) {
	cfg := Config{WorkerCount: 1, NamePrefix: "worker"}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.NamePrefix != "Worker" {
		t.Fatalf("NamePrefix = %q, want %q", cfg.NamePrefix, "Worker")
	}
}

func TestBuilderBuildsPool(t *testing.T) {
	p, err := NewBuilder().Workers(2).NamePrefix("demo").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		p.Shutdown()
		p.Wait()
	}()

	if n := p.Stats().NumWorkers; n != 2 {
		t.Fatalf("NumWorkers = %d, want 2", n)
	}
}
