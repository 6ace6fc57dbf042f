package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JoshPattman/cvquestions/client"
	"github.com/JoshPattman/cvquestions/datamodels"
	"github.com/JoshPattman/cvquestions/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls   atomic.Int32
	results []datamodels.GenerationResult
	err     error
	// started is closed when the first call begins, release unblocks it.
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *fakeGenerator) GenerateQuestions(ctx context.Context, _ string, _ []datamodels.SelectedFile) ([]datamodels.GenerationResult, error) {
	g.calls.Add(1)
	if g.started != nil {
		g.once.Do(func() { close(g.started) })
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.results, g.err
}

func (g *fakeGenerator) DownloadURL(name string) string {
	return "http://dl.example/download-file/" + client.EscapeComponent(name)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestStore(t *testing.T) (*storage.ResultsStore, storage.KVStore) {
	t.Helper()
	kv, err := storage.NewFileKVStore(t.TempDir())
	require.NoError(t, err)
	return storage.NewResultsStore(kv), kv
}

var previousResults = []datamodels.GenerationResult{
	{Docx: "old_questions.docx", PDF: "old_questions.pdf"},
}

func TestGenerate_RejectsIncompleteInput(t *testing.T) {
	cases := map[string]struct {
		jobDescription string
		files          []datamodels.SelectedFile
	}{
		"no description": {"", []datamodels.SelectedFile{{Name: "a.pdf"}}},
		"no files":       {"Backend engineer", nil},
		"nothing":        {"", nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			store, kv := newTestStore(t)
			require.NoError(t, store.Save(previousResults))
			before, _, _ := kv.Get(storage.ResultsKey)

			v := NewGenerationView(gen, store, testLogger())
			v.SetJobDescription(tc.jobDescription)
			v.SelectFiles(tc.files)

			err := v.Generate(context.Background())
			assert.ErrorIs(t, err, ErrIncompleteInput)
			assert.Zero(t, gen.calls.Load(), "no request may be issued")

			snap := v.Snapshot()
			assert.Equal(t, MessageIncompleteInput, snap.Message)
			assert.Equal(t, Idle, snap.State)
			assert.False(t, snap.Loading)

			after, _, _ := kv.Get(storage.ResultsKey)
			assert.Equal(t, before, after)
		})
	}
}

func TestGenerate_Success(t *testing.T) {
	gen := &fakeGenerator{results: []datamodels.GenerationResult{
		{Docx: "alice_questions.docx", PDF: "alice_questions.pdf"},
		{Docx: "bob smith_questions.docx", PDF: "bob smith_questions.pdf"},
		{Docx: "R&D_questions.docx", PDF: "R&D_questions.pdf"},
	}}
	store, _ := newTestStore(t)
	v := NewGenerationView(gen, store, testLogger())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "alice.pdf"}, {Name: "bob.pdf"}, {Name: "rd.pdf"}})

	require.NoError(t, v.Generate(context.Background()))

	snap := v.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, MessageSuccess, snap.Message)
	assert.False(t, snap.Loading)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, []string{"alice", "bob smith", "R&D"}, []string{snap.Rows[0].Candidate, snap.Rows[1].Candidate, snap.Rows[2].Candidate})
	assert.Equal(t, 1, snap.Rows[0].Index)
	assert.Equal(t, 3, snap.Rows[2].Index)
	assert.Equal(t, "http://dl.example/download-file/bob%20smith_questions.pdf", snap.Rows[1].PDFURL)
	assert.Equal(t, "http://dl.example/download-file/R%26D_questions.docx", snap.Rows[2].DocxURL)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, gen.results, stored)
}

func TestGenerate_FailureLeavesStorageUnchanged(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	store, kv := newTestStore(t)
	require.NoError(t, store.Save(previousResults))
	before, _, _ := kv.Get(storage.ResultsKey)

	v := NewGenerationView(gen, store, testLogger())
	require.NoError(t, v.Restore())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "alice.pdf"}})

	err := v.Generate(context.Background())
	assert.ErrorIs(t, err, gen.err)

	snap := v.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, MessageFailure, snap.Message)
	assert.Empty(t, snap.Rows)
	assert.False(t, snap.Loading)

	after, _, _ := kv.Get(storage.ResultsKey)
	assert.Equal(t, before, after)
}

func TestGenerate_ResponseWithoutFilesIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"ok"}`)
	}))
	defer srv.Close()

	store, kv := newTestStore(t)
	require.NoError(t, store.Save(previousResults))
	before, _, _ := kv.Get(storage.ResultsKey)
	c, err := client.New(client.Config{BaseURL: srv.URL, Tokens: client.StaticToken("t")})
	require.NoError(t, err)

	v := NewGenerationView(c, store, testLogger())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "alice.pdf"}})

	assert.ErrorIs(t, v.Generate(context.Background()), client.ErrMissingFiles)
	snap := v.Snapshot()
	assert.Equal(t, MessageFailure, snap.Message)
	assert.Empty(t, snap.Rows)
	after, _, _ := kv.Get(storage.ResultsKey)
	assert.Equal(t, before, after)
}

func TestGenerate_ClearsPreviousStateWhileSubmitting(t *testing.T) {
	gen := &fakeGenerator{
		results: []datamodels.GenerationResult{{Docx: "new_questions.docx", PDF: "new_questions.pdf"}},
	}
	store, _ := newTestStore(t)
	v := NewGenerationView(gen, store, testLogger())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "alice.pdf"}})
	require.NoError(t, v.Generate(context.Background()))
	require.Equal(t, MessageSuccess, v.Snapshot().Message)
	require.Len(t, v.Snapshot().Rows, 1)

	gen.started = make(chan struct{})
	gen.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- v.Generate(context.Background()) }()

	<-gen.started
	snap := v.Snapshot()
	assert.Equal(t, Submitting, snap.State)
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Message)
	assert.Empty(t, snap.Rows)

	close(gen.release)
	require.NoError(t, <-done)
	assert.Len(t, v.Snapshot().Rows, 1)
}

func TestGenerate_RejectsConcurrentTrigger(t *testing.T) {
	gen := &fakeGenerator{
		results: []datamodels.GenerationResult{{Docx: "a_questions.docx", PDF: "a_questions.pdf"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store, _ := newTestStore(t)
	v := NewGenerationView(gen, store, testLogger())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "a.pdf"}})

	done := make(chan error, 1)
	go func() { done <- v.Generate(context.Background()) }()
	<-gen.started

	assert.ErrorIs(t, v.Generate(context.Background()), ErrGenerationInFlight)
	assert.True(t, v.Snapshot().Loading, "rejected trigger leaves the running request alone")

	close(gen.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
	assert.Equal(t, int32(1), gen.calls.Load())

	// Once settled a new trigger goes through.
	require.NoError(t, v.Generate(context.Background()))
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestSubmit_RejectedKeepsRunningInputs(t *testing.T) {
	gen := &fakeGenerator{
		results: []datamodels.GenerationResult{{Docx: "a_questions.docx", PDF: "a_questions.pdf"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store, _ := newTestStore(t)
	v := NewGenerationView(gen, store, testLogger())

	done := make(chan error, 1)
	go func() {
		done <- v.Submit(context.Background(), "Backend engineer", []datamodels.SelectedFile{{Name: "a.pdf"}})
	}()
	<-gen.started

	err := v.Submit(context.Background(), "Frontend engineer", []datamodels.SelectedFile{{Name: "b.pdf"}})
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(gen.release)
	require.NoError(t, <-done)
	snap := v.Snapshot()
	assert.Equal(t, "Backend engineer", snap.JobDescription)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "a.pdf", snap.Files[0].Name)
	assert.Equal(t, MessageSuccess, snap.Message)
}

func TestSelectFiles_ReplacesWholesale(t *testing.T) {
	v := NewGenerationView(&fakeGenerator{}, nil, testLogger())
	v.SelectFiles([]datamodels.SelectedFile{{Name: "a.pdf"}, {Name: "b.pdf"}})
	v.SelectFiles([]datamodels.SelectedFile{{Name: "c.pdf"}})

	files := v.Snapshot().Files
	require.Len(t, files, 1)
	assert.Equal(t, "c.pdf", files[0].Name)
}

func TestRestore(t *testing.T) {
	t.Run("nothing stored", func(t *testing.T) {
		store, _ := newTestStore(t)
		v := NewGenerationView(&fakeGenerator{}, store, testLogger())
		require.NoError(t, v.Restore())
		assert.Empty(t, v.Results())
	})

	t.Run("stored results", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Save(previousResults))
		v := NewGenerationView(&fakeGenerator{}, store, testLogger())
		require.NoError(t, v.Restore())
		assert.Equal(t, previousResults, v.Results())
		assert.Equal(t, "old", v.Snapshot().Rows[0].Candidate)
	})

	t.Run("corrupt data", func(t *testing.T) {
		store, kv := newTestStore(t)
		require.NoError(t, kv.Set(storage.ResultsKey, "{broken"))
		v := NewGenerationView(&fakeGenerator{}, store, testLogger())
		err := v.Restore()
		assert.ErrorIs(t, err, storage.ErrCorruptResults)
		assert.Empty(t, v.Results())
	})
}

func TestGenerate_EndToEndWithClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"files":[{"docx":"alice_questions.docx","pdf":"alice_questions.pdf"}]}`)
	}))
	defer srv.Close()

	store, kv := newTestStore(t)
	tokens := storage.NewTokenStore(kv)
	require.NoError(t, tokens.SetToken("jwt-abc"))
	c, err := client.New(client.Config{
		BaseURL:         srv.URL,
		DownloadBaseURL: "http://127.0.0.1:5000",
		Tokens:          tokens,
	})
	require.NoError(t, err)

	v := NewGenerationView(c, store, testLogger())
	v.SetJobDescription("Backend engineer")
	v.SelectFiles([]datamodels.SelectedFile{{Name: "alice.pdf", Data: []byte("%PDF")}})
	require.NoError(t, v.Generate(context.Background()))

	snap := v.Snapshot()
	assert.Equal(t, "jwt-abc", gotAuth)
	assert.Equal(t, MessageSuccess, snap.Message)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, ResultRow{
		Index:     1,
		Candidate: "alice",
		DocxName:  "alice_questions.docx",
		DocxURL:   "http://127.0.0.1:5000/download-file/alice_questions.docx",
		PDFName:   "alice_questions.pdf",
		PDFURL:    "http://127.0.0.1:5000/download-file/alice_questions.pdf",
	}, snap.Rows[0])

	raw, ok, err := kv.Get(storage.ResultsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"docx":"alice_questions.docx","pdf":"alice_questions.pdf"}]`, raw)
}
