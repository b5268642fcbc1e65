package syncengine

import "testing"

func TestMapAudioFilesSkipsInvalidEntries(t *testing.T) {
	dtos := []audioFileDTO{
		{ChapterID: 1, AudioURL: "https://example.com/1.mp3", DurationSec: 120},
		{ChapterID: 0, AudioURL: "https://example.com/bad.mp3"},
		{ChapterID: 2, AudioURL: ""},
	}
	files, errs := mapAudioFiles("mishary", dtos)
	if len(files) != 1 || len(errs) != 2 {
		t.Fatalf("mapAudioFiles() = %d files, %d errs; want 1, 2", len(files), len(errs))
	}
	if files[0].ChapterNumber != 1 || files[0].ReciterSlug != "mishary" || files[0].DurationSec != 120 {
		t.Errorf("files[0] = %+v, unexpected", files[0])
	}
}
