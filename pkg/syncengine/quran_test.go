package syncengine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

type fakeQuranGateway struct {
	chapters     map[int]*types.QuranChapter
	verses       map[string]*types.QuranVerse
	translations map[string]*types.QuranTranslation
}

func newFakeQuranGateway() *fakeQuranGateway {
	return &fakeQuranGateway{
		chapters:     make(map[int]*types.QuranChapter),
		verses:       make(map[string]*types.QuranVerse),
		translations: make(map[string]*types.QuranTranslation),
	}
}

func (f *fakeQuranGateway) UpsertQuranChapter(ctx context.Context, c *types.QuranChapter) error {
	f.chapters[c.Number] = c
	return nil
}
func (f *fakeQuranGateway) UpsertQuranVerse(ctx context.Context, v *types.QuranVerse) error {
	return nil
}
func (f *fakeQuranGateway) UpsertQuranTranslation(ctx context.Context, t *types.QuranTranslation) error {
	key := t.Language
	f.translations[key] = t
	return nil
}
func (f *fakeQuranGateway) BulkUpsertQuranVerses(ctx context.Context, vs []*types.QuranVerse) (int, error) {
	for _, v := range vs {
		key := fmt.Sprintf("%d:%d", v.ChapterNumber, v.VerseNumber)
		f.verses[key] = v
	}
	return len(vs), nil
}
func (f *fakeQuranGateway) BulkUpsertQuranTranslations(ctx context.Context, ts []*types.QuranTranslation) (int, error) {
	for _, t := range ts {
		f.translations[t.Language] = t
	}
	return len(ts), nil
}
func (f *fakeQuranGateway) ListQuranChapters(ctx context.Context) ([]*types.QuranChapter, error) {
	return nil, nil
}
func (f *fakeQuranGateway) ListQuranVerses(ctx context.Context, chapterNumber int) ([]*types.QuranVerse, error) {
	return nil, nil
}

var _ storage.Quran = (*fakeQuranGateway)(nil)

func TestMapChaptersSkipsInvalidID(t *testing.T) {
	dtos := []quranChapterDTO{
		{ID: 1, NameSimple: "Al-Fatihah"},
		{ID: 0, NameSimple: "bad"},
	}
	chapters, errs := mapChapters(dtos)
	if len(chapters) != 1 || len(errs) != 1 {
		t.Fatalf("mapChapters() = %d chapters, %d errs; want 1, 1", len(chapters), len(errs))
	}
	if chapters[0].Number != 1 {
		t.Errorf("Number = %d, want 1", chapters[0].Number)
	}
}

func TestQuranTranslationFallbackOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := newFakeQuranGateway()
	sl := &fakeSyncLog{}
	engine := NewEngine(sl, 24*time.Hour)
	client := httpclient.New("test-agent", httpclient.WithRetryPolicy(httpclient.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond, RetryOn5xx: false}))

	syncer := NewQuranSyncer(client, gw, engine, srv.URL, []string{"en"}, map[string]string{
		"1:en": "placeholder translation",
	})

	result, err := syncer.SyncTranslations(context.Background(), 1, Options{})
	if err != nil {
		t.Fatalf("SyncTranslations() error: %v", err)
	}
	if !result.Success {
		t.Errorf("expected success=true with fallback applied, got %+v", result)
	}
	if sl.last.Status != types.SyncStatusPartial {
		t.Errorf("logged status = %v, want partial when fallback is used", sl.last.Status)
	}
	if gw.translations["en"] == nil || gw.translations["en"].Text != "placeholder translation" {
		t.Errorf("expected placeholder translation to be stored, got %+v", gw.translations["en"])
	}
}
