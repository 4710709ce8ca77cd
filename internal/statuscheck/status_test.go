package statuscheck

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestSummaryDefaults(t *testing.T) {
	c := New(Options{WorkDir: t.TempDir()})
	sum := c.Summary(context.Background())

	if !sum.StatusStore.OK || sum.StatusStore.Message != "in-memory" {
		t.Errorf("store status = %+v", sum.StatusStore)
	}
	if !sum.S3.OK {
		t.Errorf("unconfigured S3 must pass: %+v", sum.S3)
	}
	if !sum.WorkDir.OK {
		t.Errorf("temp work dir must be writable: %+v", sum.WorkDir)
	}
	if !sum.Ready() {
		t.Error("default setup must be ready")
	}
}

func TestRedisPingFailure(t *testing.T) {
	c := New(Options{Redis: fakePinger{err: errors.New("connection refused")}, WorkDir: t.TempDir()})
	sum := c.Summary(context.Background())

	if sum.StatusStore.OK {
		t.Error("failing ping must mark the store unready")
	}
	if sum.Ready() {
		t.Error("summary must not be ready")
	}
}

func TestRedisPingSuccess(t *testing.T) {
	c := New(Options{Redis: fakePinger{}, WorkDir: t.TempDir()})
	if sum := c.Summary(context.Background()); !sum.StatusStore.OK {
		t.Errorf("store status = %+v", sum.StatusStore)
	}
}

func TestUnwritableWorkDir(t *testing.T) {
	c := New(Options{WorkDir: filepath.Join(t.TempDir(), "does", "not", "exist")})
	sum := c.Summary(context.Background())
	if sum.WorkDir.OK {
		t.Error("missing work dir must fail the check")
	}
}
