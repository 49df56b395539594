package analytics

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(f *Funnel) {
	for _, id := range []string{"a", "b", "c", "d"} {
		f.Reach(id, StageChat)
	}
	// repeated hits from one session count once
	f.Reach("a", StageChat)
	f.Reach("a", StageFormStarted)
	f.Reach("b", StageFormStarted)
	f.Reach("a", StepStage(1))
	f.Reach("a", StageLeadCompleted)
}

func TestReportCountsDistinctSessions(t *testing.T) {
	f := NewFunnel(NewMemoryRepo(), nil)
	seed(f)

	report := f.Report()
	require.Len(t, report, 8)
	assert.Equal(t, StageChat, report[0].Stage)
	assert.Equal(t, 4, report[0].Sessions)
	assert.Equal(t, 100, report[0].PercentOfPrev)

	assert.Equal(t, StageFormStarted, report[1].Stage)
	assert.Equal(t, 2, report[1].Sessions)
	assert.Equal(t, 50, report[1].PercentOfBase)
	assert.Equal(t, 50, report[1].PercentOfPrev)

	assert.Equal(t, "Answer 1", report[2].Label)
	assert.Equal(t, 1, report[2].Sessions)

	assert.Equal(t, StageLeadCompleted, report[6].Stage)
	assert.Equal(t, 1, report[6].Sessions)
	assert.Equal(t, 0, report[6].PercentOfPrev, "step_4 had nobody, so there is no previous base")
	assert.Equal(t, StageLeadSaved, report[7].Stage)
	assert.Equal(t, 0, report[7].Sessions)
}

func TestReachIgnoresBlank(t *testing.T) {
	repo := NewMemoryRepo()
	f := NewFunnel(repo, nil)
	f.Reach("", StageChat)
	f.Reach("a", "")
	assert.Empty(t, repo.Counts())

	var nilFunnel *Funnel
	nilFunnel.Reach("a", StageChat)
}

func TestSummary(t *testing.T) {
	f := NewFunnel(NewMemoryRepo(), nil)
	assert.Equal(t, "No funnel data yet", f.Summary())

	seed(f)
	s := f.Summary()
	assert.Contains(t, s, "- Chat: 4 | 100% of base | 100% of previous [####################]")
	assert.Contains(t, s, "- Form started: 2 |  50% of base |  50% of previous [##########----------]")
}

func TestRenderPNG(t *testing.T) {
	for _, name := range []string{"empty", "seeded"} {
		t.Run(name, func(t *testing.T) {
			f := NewFunnel(NewMemoryRepo(), nil)
			if name == "seeded" {
				seed(f)
			}
			var buf bytes.Buffer
			require.NoError(t, f.RenderPNG(&buf))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
		})
	}
}

func TestSQLiteRepo(t *testing.T) {
	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "funnel.db"))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Hit(StageChat, "a"))
	require.NoError(t, repo.Hit(StageChat, "a"))
	require.NoError(t, repo.Hit(StageChat, "b"))
	require.NoError(t, repo.Hit(StageFormStarted, "a"))

	counts := repo.Counts()
	assert.Equal(t, 2, counts[StageChat])
	assert.Equal(t, 1, counts[StageFormStarted])
}
