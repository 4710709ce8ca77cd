// Package statuscheck aggregates readiness checks for the subsystems an
// export can depend on: the job status store, the S3 destination bucket,
// and the scratch directory for in-flight documents.
package statuscheck

import (
	"context"
	"fmt"
	"os"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal store capability needed for checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Status represents the readiness of one subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	StatusStore Status `json:"status_store"`
	S3          Status `json:"s3"`
	WorkDir     Status `json:"work_dir"`
}

// Ready reports whether every checked subsystem is usable.
func (s Summary) Ready() bool {
	return s.StatusStore.OK && s.S3.OK && s.WorkDir.OK
}

// Options configures the Checker. Zero-value fields skip their check.
type Options struct {
	Redis    RedisPinger // nil means the in-memory store is in use
	S3Bucket string      // "" means no S3 destinations configured
	WorkDir  string      // "" means the OS temp dir
}

// Checker runs the readiness checks.
type Checker struct {
	redis    RedisPinger
	s3Bucket string
	workDir  string
}

// New creates a Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{redis: opts.Redis, s3Bucket: opts.S3Bucket, workDir: opts.WorkDir}
}

// Summary returns the current readiness snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		StatusStore: c.checkStore(ctx),
		S3:          c.checkS3(ctx),
		WorkDir:     c.checkWorkDir(),
	}
}

func (c *Checker) checkStore(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: true, Message: "in-memory"}
	}
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
	}
	return Status{OK: true, Message: "redis reachable"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" {
		return Status{OK: true, Message: "not configured"}
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return Status{OK: false, Message: fmt.Sprintf("aws config: %v", err)}
	}
	cli := s3.NewFromConfig(cfg)
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: fmt.Sprintf("bucket %s unreachable: %v", c.s3Bucket, err)}
	}
	return Status{OK: true, Message: "bucket reachable"}
}

// checkWorkDir verifies the scratch directory accepts writes, since every
// export stages its document there before delivery.
func (c *Checker) checkWorkDir() Status {
	f, err := os.CreateTemp(c.workDir, "readycheck-*")
	if err != nil {
		return Status{OK: false, Message: fmt.Sprintf("work dir not writable: %v", err)}
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)
	return Status{OK: true, Message: "writable"}
}
