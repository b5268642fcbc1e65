package syncengine

import (
	"context"
	"fmt"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

const hadithJobName = "hadith-sync"

type hadithCollectionDTO struct {
	Name      string `json:"name"`
	TotalHadith int  `json:"totalHadith"`
	TotalBooks  int  `json:"totalAvailableBooks"`
}

type hadithBookDTO struct {
	BookNumber string `json:"bookNumber"`
	Name       string `json:"name"`
	HadithCount int   `json:"numberOfHadith"`
}

type hadithBookListResp struct {
	Books []hadithBookDTO `json:"books"`
}

type hadithDTO struct {
	HadithNumber string `json:"hadithNumber"`
	TextArabic   string `json:"arabicText"`
	TextEnglish  string `json:"englishText"`
	Grade        string `json:"grade"`
}

type hadithListResp struct {
	Hadiths []hadithDTO `json:"hadiths"`
}

// HadithSyncer fetches and maps hadith collections/books/hadiths.
type HadithSyncer struct {
	client  *httpclient.Client
	gateway storage.Hadith
	engine  *Engine
	baseURL string
}

func NewHadithSyncer(client *httpclient.Client, gateway storage.Hadith, engine *Engine, baseURL string) *HadithSyncer {
	return &HadithSyncer{client: client, gateway: gateway, engine: engine, baseURL: baseURL}
}

// SyncCollection fetches one collection's metadata, its book list,
// then every book's hadiths, upserting each as it goes.
func (s *HadithSyncer) SyncCollection(ctx context.Context, slug string, opts Options) (*Result, error) {
	return s.engine.Run(ctx, hadithJobName, "collection:"+slug, opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var collDTO hadithCollectionDTO
		if err := s.client.GetJSON(ctx, "hadith", fmt.Sprintf("%s/collections/%s", s.baseURL, slug), &collDTO); err != nil {
			return StepResult{}, err
		}

		var result StepResult
		result.Processed++

		collection := &types.HadithCollection{Slug: slug, Name: collDTO.Name, BookCount: collDTO.TotalBooks}
		if !opts.DryRun {
			if err := s.gateway.UpsertHadithCollection(ctx, collection); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				return result, nil
			}
			result.Updated++
		}

		var bookResp hadithBookListResp
		if err := s.client.GetJSON(ctx, "hadith", fmt.Sprintf("%s/collections/%s/books", s.baseURL, slug), &bookResp); err != nil {
			return result, err
		}

		for _, b := range bookResp.Books {
			result.Processed++
			bookNumber := parseBookNumber(b.BookNumber)
			book := &types.HadithBook{CollectionSlug: slug, BookNumber: bookNumber, Name: b.Name, HadithCount: b.HadithCount}
			if opts.DryRun {
				continue
			}
			if err := s.gateway.UpsertHadithBook(ctx, book); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated++

			hadiths, mapErrs, err := s.fetchBookHadiths(ctx, slug, bookNumber)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Processed += len(hadiths) + len(mapErrs)
			result.Failed += len(mapErrs)
			result.Errors = append(result.Errors, mapErrs...)

			updated, err := s.gateway.BulkUpsertHadiths(ctx, hadiths)
			if err != nil {
				result.Failed += len(hadiths)
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated += updated
		}
		return result, nil
	})
}

func (s *HadithSyncer) fetchBookHadiths(ctx context.Context, slug string, bookNumber int) ([]*types.Hadith, []string, error) {
	var resp hadithListResp
	url := fmt.Sprintf("%s/collections/%s/books/%d/hadiths", s.baseURL, slug, bookNumber)
	if err := s.client.GetJSON(ctx, "hadith", url, &resp); err != nil {
		return nil, nil, err
	}
	return mapHadiths(slug, bookNumber, resp.Hadiths)
}

func mapHadiths(slug string, bookNumber int, dtos []hadithDTO) ([]*types.Hadith, []string, error) {
	var out []*types.Hadith
	var errs []string
	for _, d := range dtos {
		n := parseBookNumber(d.HadithNumber)
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("%s book %d: hadith with invalid number %q skipped", slug, bookNumber, d.HadithNumber))
			continue
		}
		out = append(out, &types.Hadith{
			CollectionSlug: slug,
			BookNumber:     bookNumber,
			HadithNumber:   n,
			TextArabic:     d.TextArabic,
			TextEnglish:    d.TextEnglish,
			Grade:          d.Grade,
		})
	}
	return out, errs, nil
}

func parseBookNumber(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
