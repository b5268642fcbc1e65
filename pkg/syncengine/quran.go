package syncengine

import (
	"context"
	"fmt"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

const quranJobName = "quran-sync"

// quranChapterDTO is the upstream chapter-listing shape.
type quranChapterDTO struct {
	ID             int    `json:"id"`
	NameArabic     string `json:"name_arabic"`
	NameSimple     string `json:"name_simple"`
	RevelationPlace string `json:"revelation_place"`
	VersesCount    int    `json:"verses_count"`
}

type quranChapterListResp struct {
	Chapters []quranChapterDTO `json:"chapters"`
}

type quranVerseDTO struct {
	VerseNumber int    `json:"verse_number"`
	TextUthmani string `json:"text_uthmani"`
	JuzNumber   int    `json:"juz_number"`
	PageNumber  int    `json:"page_number"`
}

type quranVerseListResp struct {
	Verses []quranVerseDTO `json:"verses"`
}

type quranTranslationDTO struct {
	VerseNumber int    `json:"verse_number"`
	Text        string `json:"text"`
	ResourceID  int    `json:"resource_id"`
}

type quranTranslationListResp struct {
	Translations []quranTranslationDTO `json:"translations"`
}

// QuranSyncer fetches and maps Quran content from the configured
// provider into the Persistence Gateway.
type QuranSyncer struct {
	client  *httpclient.Client
	gateway storage.Quran
	engine  *Engine
	baseURL string

	translationLangs    []string
	translationFallback map[string]string
}

// NewQuranSyncer constructs a syncer. translationFallback maps
// "chapterNumber:languageCode" to placeholder text, consulted only when
// the upstream translation endpoint returns a 5xx.
func NewQuranSyncer(client *httpclient.Client, gateway storage.Quran, engine *Engine, baseURL string, translationLangs []string, translationFallback map[string]string) *QuranSyncer {
	return &QuranSyncer{
		client: client, gateway: gateway, engine: engine, baseURL: baseURL,
		translationLangs: translationLangs, translationFallback: translationFallback,
	}
}

// SyncChapters fetches and upserts the full chapter list; chapters are
// never paginated upstream.
func (s *QuranSyncer) SyncChapters(ctx context.Context, opts Options) (*Result, error) {
	return s.engine.Run(ctx, quranJobName, "chapters", opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp quranChapterListResp
		if err := s.client.GetJSON(ctx, "quran", s.baseURL+"/chapters", &resp); err != nil {
			return StepResult{}, err
		}

		chapters, mapErrs := mapChapters(resp.Chapters)
		result := StepResult{Processed: len(resp.Chapters), Failed: len(mapErrs), Errors: mapErrs}
		if opts.DryRun {
			return result, nil
		}

		for _, c := range chapters {
			if err := s.gateway.UpsertQuranChapter(ctx, c); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated++
		}
		return result, nil
	})
}

// SyncVerses fetches and upserts every verse for one chapter.
func (s *QuranSyncer) SyncVerses(ctx context.Context, chapterNumber int, opts Options) (*Result, error) {
	resource := fmt.Sprintf("verses:%d", chapterNumber)
	return s.engine.Run(ctx, quranJobName, resource, opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp quranVerseListResp
		url := fmt.Sprintf("%s/verses/by_chapter/%d?per_page=300", s.baseURL, chapterNumber)
		if err := s.client.GetJSON(ctx, "quran", url, &resp); err != nil {
			return StepResult{}, err
		}

		verses, mapErrs := mapVerses(chapterNumber, resp.Verses)
		result := StepResult{Processed: len(resp.Verses), Failed: len(mapErrs), Errors: mapErrs}
		if opts.DryRun {
			return result, nil
		}

		updated, err := s.gateway.BulkUpsertQuranVerses(ctx, verses)
		if err != nil {
			result.Failed += len(verses)
			result.Errors = append(result.Errors, err.Error())
			return result, nil
		}
		result.Updated = updated
		return result, nil
	})
}

// SyncTranslations fetches and upserts every configured language's
// translation for one chapter. On a 5xx from upstream, it falls back
// to upserting placeholder rows for any (chapter, language) pair
// present in translationFallback, and marks the step result so the
// run is logged as partial rather than success.
func (s *QuranSyncer) SyncTranslations(ctx context.Context, chapterNumber int, opts Options) (*Result, error) {
	resource := fmt.Sprintf("translations:%d", chapterNumber)
	return s.engine.Run(ctx, quranJobName, resource, opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var result StepResult

		for _, lang := range s.translationLangs {
			var resp quranTranslationListResp
			url := fmt.Sprintf("%s/quran/translations/%d?chapter_number=%d", s.baseURL, translationResourceID(lang), chapterNumber)

			err := s.client.GetJSON(ctx, "quran", url, &resp)
			if err != nil {
				if !isUpstream5xx(err) {
					return StepResult{}, err
				}
				if placeholder, ok := s.translationFallback[fmt.Sprintf("%d:%s", chapterNumber, lang)]; ok {
					t := &types.QuranTranslation{
						ChapterNumber: chapterNumber, VerseNumber: 1,
						Language: lang, TranslatorID: "fallback", Text: placeholder,
					}
					if !opts.DryRun {
						if err := s.gateway.UpsertQuranTranslation(ctx, t); err == nil {
							result.Updated++
						}
					}
					result.Processed++
					result.FallbackUsed = true
					continue
				}
				result.Processed++
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}

			translations, mapErrs := mapTranslations(chapterNumber, lang, resp.Translations)
			result.Processed += len(resp.Translations)
			result.Failed += len(mapErrs)
			result.Errors = append(result.Errors, mapErrs...)
			if opts.DryRun {
				continue
			}
			updated, err := s.gateway.BulkUpsertQuranTranslations(ctx, translations)
			if err != nil {
				result.Failed += len(translations)
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated += updated
		}
		return result, nil
	})
}

func mapChapters(dtos []quranChapterDTO) ([]*types.QuranChapter, []string) {
	var out []*types.QuranChapter
	var errs []string
	for _, d := range dtos {
		if d.ID <= 0 {
			errs = append(errs, fmt.Sprintf("chapter with invalid id %d skipped", d.ID))
			continue
		}
		out = append(out, &types.QuranChapter{
			Number:         d.ID,
			Name:           d.NameSimple,
			NameArabic:     d.NameArabic,
			NameEnglish:    d.NameSimple,
			RevelationType: d.RevelationPlace,
			VerseCount:     d.VersesCount,
		})
	}
	return out, errs
}

func mapVerses(chapterNumber int, dtos []quranVerseDTO) ([]*types.QuranVerse, []string) {
	var out []*types.QuranVerse
	var errs []string
	for _, d := range dtos {
		if d.VerseNumber <= 0 {
			errs = append(errs, fmt.Sprintf("chapter %d: verse with invalid number %d skipped", chapterNumber, d.VerseNumber))
			continue
		}
		out = append(out, &types.QuranVerse{
			ChapterNumber: chapterNumber,
			VerseNumber:   d.VerseNumber,
			TextArabic:    d.TextUthmani,
			Juz:           d.JuzNumber,
			Page:          d.PageNumber,
		})
	}
	return out, errs
}

func mapTranslations(chapterNumber int, lang string, dtos []quranTranslationDTO) ([]*types.QuranTranslation, []string) {
	var out []*types.QuranTranslation
	var errs []string
	for _, d := range dtos {
		if d.VerseNumber <= 0 {
			errs = append(errs, fmt.Sprintf("chapter %d lang %s: translation with invalid verse number %d skipped", chapterNumber, lang, d.VerseNumber))
			continue
		}
		out = append(out, &types.QuranTranslation{
			ChapterNumber: chapterNumber,
			VerseNumber:   d.VerseNumber,
			Language:      lang,
			TranslatorID:  fmt.Sprintf("%d", d.ResourceID),
			Text:          d.Text,
		})
	}
	return out, errs
}

// translationResourceID maps a language code to the upstream
// translation resource identifier; unknown languages resolve to 0,
// which the provider treats as "no translation available".
var translationResourceIDByLang = map[string]int{
	"en": 131,
	"ur": 97,
	"bn": 161,
	"fr": 136,
	"id": 33,
}

func translationResourceID(lang string) int {
	return translationResourceIDByLang[lang]
}
