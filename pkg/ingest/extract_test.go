package ingest

import (
	"reflect"
	"testing"

	"animebase/pkg/common"
	"animebase/pkg/graph"
)

func TestNormalizeEntities(t *testing.T) {
	norm := graph.NewNormalizer(map[string]string{"Eren": "Eren Yeager"})
	e := NewExtractor(nil, norm)

	got := e.normalizeEntities([]string{" Eren ", "Mikasa", "Eren Yeager", "", "Mikasa"})
	want := []string{"Eren Yeager", "Mikasa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeEntities() = %v, want %v", got, want)
	}
}

func TestCollectEntityRecords(t *testing.T) {
	extractions := []sceneExtraction{
		{
			Scene:    common.Scene{ID: 1, Script: "Eren:I will fight"},
			Entities: []string{"Eren", "Mikasa"},
		},
		{
			Scene:    common.Scene{ID: 2, Script: "Mikasa:stay close"},
			Entities: []string{"Mikasa"},
		},
	}

	records := CollectEntityRecords(extractions)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	byName := map[string]common.EntityRecord{}
	for _, r := range records {
		byName[r.Entity] = r
	}

	eren := byName["Eren"]
	if len(eren.Contents.Contents) != 1 {
		t.Fatalf("Eren has %d contents, want 1", len(eren.Contents.Contents))
	}
	if eren.Contents.Contents[0].Title != "Eren,Mikasa" {
		t.Errorf("content title = %q, want the comma-joined entity list", eren.Contents.Contents[0].Title)
	}
	if eren.Contents.Contents[0].Body != "Eren:I will fight" {
		t.Errorf("content body = %q", eren.Contents.Contents[0].Body)
	}

	mikasa := byName["Mikasa"]
	if len(mikasa.Contents.Contents) != 2 {
		t.Errorf("Mikasa has %d contents, want 2", len(mikasa.Contents.Contents))
	}
}

func TestCollectEntityRecordsEmpty(t *testing.T) {
	if records := CollectEntityRecords(nil); len(records) != 0 {
		t.Errorf("CollectEntityRecords(nil) = %v, want empty", records)
	}
}
