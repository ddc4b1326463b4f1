package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/foldercache"
	"github.com/controlsuite/auditfiles/internal/logging"
)

// fakeFolders records every EnsureFolder call and returns deterministic ids
// derived from the folder path, mimicking an idempotent backend.
type fakeFolders struct {
	mu       sync.Mutex
	calls    []string // "parent/name"
	failName string   // EnsureFolder for this name fails
	block    chan struct{}
}

func (f *fakeFolders) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, parentID+"/"+name)
	f.mu.Unlock()
	if name == f.failName {
		return "", errors.New("backend unavailable")
	}
	return "id:" + parentID + "/" + name, nil
}

func (f *fakeFolders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func trainingContext() filecontext.Context {
	return filecontext.Context{
		Kind:           filecontext.KindTraining,
		EventID:        "evt-1",
		OrganizationID: "org-9",
		SubUnitID:      "branch-2",
		Category:       filecontext.CategoryEvidence,
	}
}

func TestResolve_TrainingHierarchy(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())

	id, err := r.Resolve(context.Background(), trainingContext())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// root container, kind bucket, event, organization, sub-unit, category
	require.Len(t, folders.calls, 6)
	assert.Equal(t, "/ControlAudit", folders.calls[0])
	assert.True(t, strings.HasSuffix(folders.calls[1], "/training"))
	assert.True(t, strings.HasSuffix(folders.calls[2], "/evt-1"))
	assert.True(t, strings.HasSuffix(folders.calls[3], "/org-9"))
	assert.True(t, strings.HasSuffix(folders.calls[4], "/branch-2"))
	assert.True(t, strings.HasSuffix(folders.calls[5], "/evidence"))
}

func TestResolve_WarmCacheMakesNoRemoteCalls(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())
	ctx := context.Background()

	first, err := r.Resolve(ctx, trainingContext())
	require.NoError(t, err)
	cold := folders.callCount()

	second, err := r.Resolve(ctx, trainingContext())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, cold, folders.callCount(), "second resolution must make zero folder-creation calls")
}

func TestResolve_DeterministicAcrossInstances(t *testing.T) {
	ctx := context.Background()
	r1 := New(&fakeFolders{}, foldercache.New(10), testLogger())
	r2 := New(&fakeFolders{}, foldercache.New(10), testLogger())

	id1, err := r1.Resolve(ctx, trainingContext())
	require.NoError(t, err)
	id2, err := r2.Resolve(ctx, trainingContext())
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestResolve_GeneralAuditSkipsEventLevel(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())

	fc := filecontext.Context{
		Kind:     filecontext.KindAudit,
		EventID:  "general",
		Category: filecontext.CategoryEvidence,
	}
	_, err := r.Resolve(context.Background(), fc)
	require.NoError(t, err)

	for _, call := range folders.calls {
		assert.NotContains(t, call, "/general", "event level must be skipped for general audits")
	}
	// root, bucket, category (no org supplied)
	assert.Len(t, folders.calls, 3)
}

func TestResolve_SpecificAuditKeepsEventLevel(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())

	fc := filecontext.Context{
		Kind:     filecontext.KindAudit,
		EventID:  "aud-7",
		Category: filecontext.CategoryReport,
	}
	_, err := r.Resolve(context.Background(), fc)
	require.NoError(t, err)
	assert.Contains(t, folders.calls[2], "/aud-7")
}

func TestResolve_ValidationErrorPropagatesUnchanged(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())

	fc := trainingContext()
	fc.OrganizationID = ""
	_, err := r.Resolve(context.Background(), fc)
	assert.ErrorIs(t, err, filecontext.ErrMissingOrganizationID)
	assert.Zero(t, folders.callCount(), "invalid contexts must never reach the folder backend")
}

func TestResolve_FailureCachesNothing(t *testing.T) {
	folders := &fakeFolders{failName: "org-9"}
	cache := foldercache.New(10)
	r := New(folders, cache, testLogger())
	ctx := context.Background()

	_, err := r.Resolve(ctx, trainingContext())
	require.Error(t, err)

	var fe *FolderError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, LevelOrg, fe.Level)
	assert.Equal(t, "org-9", fe.Name)
	assert.Equal(t, 0, cache.Len())

	// full retry succeeds once the backend recovers and re-walks all levels
	folders.failName = ""
	before := folders.callCount()
	_, err = r.Resolve(ctx, trainingContext())
	require.NoError(t, err)
	assert.Equal(t, before+6, folders.callCount())
	assert.Equal(t, 1, cache.Len())
}

func TestResolve_FailureAtRootLevel(t *testing.T) {
	folders := &fakeFolders{failName: RootContainer}
	r := New(folders, foldercache.New(10), testLogger())

	_, err := r.Resolve(context.Background(), trainingContext())
	var fe *FolderError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, LevelRoot, fe.Level)
}

func TestResolve_ConcurrentSameKeyCollapses(t *testing.T) {
	folders := &fakeFolders{block: make(chan struct{})}
	r := New(folders, foldercache.New(10), testLogger())
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.Resolve(ctx, trainingContext())
		}(i)
	}
	close(folders.block)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	// one walk for all callers
	assert.Equal(t, 6, folders.callCount())
}

func TestResolve_DifferentKeysResolveIndependently(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(10), testLogger())
	ctx := context.Background()

	a := trainingContext()
	b := trainingContext()
	b.EventID = "evt-2"

	idA, err := r.Resolve(ctx, a)
	require.NoError(t, err)
	idB, err := r.Resolve(ctx, b)
	require.NoError(t, err)
	assert.NotEqual(t, idA, idB)
}

func TestCacheKey_FixedFieldOrder(t *testing.T) {
	fc := trainingContext()
	assert.Equal(t, "training|evt-1|org-9|branch-2|evidence", cacheKey(fc))

	fc.SubUnitID = ""
	assert.Equal(t, "training|evt-1|org-9||evidence", cacheKey(fc))
}

func TestResolve_CacheEvictionForcesRewalk(t *testing.T) {
	folders := &fakeFolders{}
	r := New(folders, foldercache.New(2), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fc := trainingContext()
		fc.EventID = fmt.Sprintf("evt-%d", i)
		_, err := r.Resolve(ctx, fc)
		require.NoError(t, err)
	}

	// evt-0 was evicted; resolving it again walks remotely once more
	before := folders.callCount()
	fc := trainingContext()
	fc.EventID = "evt-0"
	_, err := r.Resolve(ctx, fc)
	require.NoError(t, err)
	assert.Equal(t, before+6, folders.callCount())
}
