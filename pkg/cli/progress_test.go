package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressLines(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(2)
	progress.Done("a.json", "3 mapped", nil)
	progress.Done("b.txt", "", errors.New("no fields found"))
	progress.Finish()

	out := buf.String()
	for _, want := range []string{
		"[1/2] ✓ a.json: 3 mapped",
		"[2/2] ✗ b.txt: no fields found",
		"2 batches, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Finish()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf).(*SimpleProgress)
	progress.Start(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			progress.Done(fmt.Sprintf("in-%d", i), "ok", nil)
		}(i)
	}
	wg.Wait()
	progress.Finish()

	if progress.done != 50 {
		t.Errorf("done = %d, want 50", progress.done)
	}
	if !strings.Contains(buf.String(), "[50/50]") {
		t.Error("expected a final [50/50] line")
	}
}

func TestNopProgress(t *testing.T) {
	var p ProgressReporter = NopProgress{}
	p.Start(3)
	p.Done("x", "y", nil)
	p.Finish()
}
