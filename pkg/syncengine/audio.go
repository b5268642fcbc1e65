package syncengine

import (
	"context"
	"fmt"

	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/types"
)

const audioJobName = "audio-sync"

type reciterDTO struct {
	ID   int    `json:"id"`
	Slug string `json:"reciter_name"`
	Name string `json:"name"`
}

type reciterListResp struct {
	Reciters []reciterDTO `json:"recitations"`
}

type audioFileDTO struct {
	ChapterID   int    `json:"chapter_id"`
	AudioURL    string `json:"audio_url"`
	DurationSec int    `json:"duration"`
}

type audioFileListResp struct {
	Files []audioFileDTO `json:"audio_files"`
}

// AudioSyncer fetches and maps reciters and their per-chapter audio
// files.
type AudioSyncer struct {
	client  *httpclient.Client
	gateway storage.Audio
	engine  *Engine
	baseURL string
}

func NewAudioSyncer(client *httpclient.Client, gateway storage.Audio, engine *Engine, baseURL string) *AudioSyncer {
	return &AudioSyncer{client: client, gateway: gateway, engine: engine, baseURL: baseURL}
}

// SyncReciters fetches and upserts the reciter list.
func (s *AudioSyncer) SyncReciters(ctx context.Context, opts Options) (*Result, error) {
	return s.engine.Run(ctx, audioJobName, "reciters", opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp reciterListResp
		if err := s.client.GetJSON(ctx, "audio", s.baseURL+"/resources/recitations", &resp); err != nil {
			return StepResult{}, err
		}

		result := StepResult{Processed: len(resp.Reciters)}
		if opts.DryRun {
			return result, nil
		}
		for _, r := range resp.Reciters {
			if r.Slug == "" {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("reciter %d has no slug, skipped", r.ID))
				continue
			}
			if err := s.gateway.UpsertReciter(ctx, &types.Reciter{Slug: r.Slug, Name: r.Name, UpstreamID: r.ID}); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Updated++
		}
		return result, nil
	})
}

// SyncAudioFiles fetches and bulk-upserts one reciter's audio files
// across all chapters.
func (s *AudioSyncer) SyncAudioFiles(ctx context.Context, reciterSlug string, reciterID int, opts Options) (*Result, error) {
	resource := fmt.Sprintf("audio-files:%s", reciterSlug)
	return s.engine.Run(ctx, audioJobName, resource, opts, func(ctx context.Context, opts Options) (StepResult, error) {
		var resp audioFileListResp
		url := fmt.Sprintf("%s/chapter_recitations/%d", s.baseURL, reciterID)
		if err := s.client.GetJSON(ctx, "audio", url, &resp); err != nil {
			return StepResult{}, err
		}

		files, mapErrs := mapAudioFiles(reciterSlug, resp.Files)
		result := StepResult{Processed: len(resp.Files), Failed: len(mapErrs), Errors: mapErrs}
		if opts.DryRun {
			return result, nil
		}

		updated, err := s.gateway.BulkUpsertAudioFiles(ctx, files)
		if err != nil {
			result.Failed += len(files)
			result.Errors = append(result.Errors, err.Error())
			return result, nil
		}
		result.Updated = updated
		return result, nil
	})
}

func mapAudioFiles(reciterSlug string, dtos []audioFileDTO) ([]*types.AudioFile, []string) {
	var out []*types.AudioFile
	var errs []string
	for _, d := range dtos {
		if d.ChapterID <= 0 || d.AudioURL == "" {
			errs = append(errs, fmt.Sprintf("reciter %s: audio file with invalid chapter %d or empty url skipped", reciterSlug, d.ChapterID))
			continue
		}
		out = append(out, &types.AudioFile{
			ReciterSlug:   reciterSlug,
			ChapterNumber: d.ChapterID,
			URL:           d.AudioURL,
			DurationSec:   d.DurationSec,
		})
	}
	return out, errs
}
