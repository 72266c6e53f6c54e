// Package loadtest measures sync latency against a synthetic directory tree.
//
// A run generates a tree of text files, pushes a create event per file
// through the sync engine while concurrent readers list documents, then
// deletes every file again and checks that the store ends up empty.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/mirror/query"
	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

// Options configures a load test run.
type Options struct {
	// Files is the number of files to generate (default 500)
	Files int
	// Folders is the number of second-level folders files are spread over (default 20)
	Folders int
	// Readers is the number of concurrent document listers (default 4, negative disables)
	Readers int
	// MaxFileBytes caps the generated file size (default 4096)
	MaxFileBytes int
	// Seed makes the generated tree reproducible
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Files <= 0 {
		o.Files = 500
	}
	if o.Folders <= 0 {
		o.Folders = 20
	}
	if o.Readers < 0 {
		o.Readers = 0
	} else if o.Readers == 0 {
		o.Readers = 4
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = 4096
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	return o
}

// TestTree is a generated directory tree.
type TestTree struct {
	Root  string
	Paths []string
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min        time.Duration   `json:"min_ns"`
	Max        time.Duration   `json:"max_ns"`
	Mean       time.Duration   `json:"mean_ns"`
	P50        time.Duration   `json:"p50_ns"` // Median
	P95        time.Duration   `json:"p95_ns"`
	P99        time.Duration   `json:"p99_ns"`
	Operations int             `json:"operations"`
	Errors     int             `json:"errors"`
	Durations  []time.Duration `json:"-"`
}

// Report holds the results of a run.
type Report struct {
	Files   int           `json:"files"`
	Upserts *LatencyStats `json:"upserts"`
	Deletes *LatencyStats `json:"deletes"`
	Reads   *LatencyStats `json:"reads"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// GenerateTree writes files under dir/root spread across folders
// root/folder-NN/. Every file name is unique so deletes are unambiguous.
func GenerateTree(dir string, files, folders int, maxBytes int, seed int64) (*TestTree, error) {
	root := filepath.Join(dir, "root")
	rng := rand.New(rand.NewSource(seed))

	tree := &TestTree{Root: root, Paths: make([]string, 0, files)}
	for i := 0; i < files; i++ {
		folder := filepath.Join(root, fmt.Sprintf("folder-%02d", i%folders))
		if err := os.MkdirAll(folder, 0755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", folder, err)
		}

		path := filepath.Join(folder, fmt.Sprintf("doc-%05d.txt", i))
		if err := os.WriteFile(path, []byte(generateText(rng, 1+rng.Intn(maxBytes))), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		tree.Paths = append(tree.Paths, path)
	}
	return tree, nil
}

var words = []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliet"}

func generateText(rng *rand.Rand, size int) string {
	var b strings.Builder
	for b.Len() < size {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[rng.Intn(len(words))])
	}
	return b.String()[:size]
}

// Run generates a tree under dir, syncs it into database and removes it
// again, timing every event. The store must already be initialized.
func Run(ctx context.Context, database *db.DB, dir string, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	start := time.Now()

	tree, err := GenerateTree(dir, opts.Files, opts.Folders, opts.MaxFileBytes, opts.Seed)
	if err != nil {
		return nil, err
	}

	engine := mirror.New(database, mirror.Options{Root: tree.Root})
	reader := query.New(database, nil)

	readCtx, stopReaders := context.WithCancel(ctx)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var readDurations []time.Duration
	readErrors := 0

	for i := 0; i < opts.Readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []time.Duration
			localErrors := 0
			for readCtx.Err() == nil {
				t0 := time.Now()
				if _, err := reader.Find(readCtx, query.Filter{Limit: 50}); err != nil {
					if readCtx.Err() != nil {
						break
					}
					localErrors++
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			readDurations = append(readDurations, local...)
			readErrors += localErrors
			mu.Unlock()
		}()
	}

	upserts, upsertErrors := timeEvents(ctx, engine, tree.Paths, mirror.OpCreate)
	deletes, deleteErrors := timeEvents(ctx, engine, tree.Paths, mirror.OpDelete)

	stopReaders()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Files:   len(tree.Paths),
		Upserts: computeLatencyStats(upserts),
		Deletes: computeLatencyStats(deletes),
		Reads:   computeLatencyStats(readDurations),
		Elapsed: time.Since(start),
	}
	report.Upserts.Errors = upsertErrors
	report.Deletes.Errors = deleteErrors
	report.Reads.Errors = readErrors

	remaining, err := database.GetDocumentCountContext(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to count documents: %w", err)
	}
	if remaining != 0 {
		return report, fmt.Errorf("store inconsistent after run: %d documents remain", remaining)
	}
	return report, nil
}

func timeEvents(ctx context.Context, engine *mirror.Engine, paths []string, op mirror.Op) ([]time.Duration, int) {
	durations := make([]time.Duration, 0, len(paths))
	failed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if op == mirror.OpDelete {
			if err := os.Remove(path); err != nil {
				failed++
				continue
			}
		}
		t0 := time.Now()
		if !engine.Handle(ctx, mirror.Event{Path: path, Op: op}) {
			failed++
		}
		durations = append(durations, time.Since(t0))
	}
	return durations, failed
}

// computeLatencyStats calculates percentiles and statistics from durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return &LatencyStats{
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		Mean:       total / time.Duration(len(sorted)),
		P50:        sorted[len(sorted)*50/100],
		P95:        sorted[len(sorted)*95/100],
		P99:        sorted[len(sorted)*99/100],
		Operations: len(sorted),
		Durations:  sorted,
	}
}

// Print writes a summary of the stats with a label.
func (s *LatencyStats) Print(w io.Writer, label string) {
	fmt.Fprintf(w, "%-8s ops=%-6d errors=%-4d min=%-10v mean=%-10v p50=%-10v p95=%-10v p99=%-10v max=%v\n",
		label, s.Operations, s.Errors, s.Min, s.Mean, s.P50, s.P95, s.P99, s.Max)
}

// Print writes the whole report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Synced and removed %d files in %v\n", r.Files, r.Elapsed.Round(time.Millisecond))
	r.Upserts.Print(w, "upsert")
	r.Deletes.Print(w, "delete")
	r.Reads.Print(w, "read")
}
