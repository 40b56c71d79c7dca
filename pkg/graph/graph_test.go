package graph

import (
	"reflect"
	"testing"

	"animebase/pkg/common"
)

func entityRecord(name string, bodies ...string) common.EntityRecord {
	record := common.EntityRecord{Entity: name}
	for _, body := range bodies {
		record.Contents.Contents = append(record.Contents.Contents, common.Content{
			Title: name,
			Body:  body,
		})
	}
	return record
}

func TestBuildDropsUnknownEndpoints(t *testing.T) {
	entities := []common.EntityRecord{
		entityRecord("Eren", "scene one"),
		entityRecord("Mikasa", "scene one"),
	}
	relations := []common.RelationRecord{
		{Source: "Eren", Target: "Mikasa", Relation: "childhood friend of"},
		{Source: "Eren", Target: "Ghost", Relation: "haunted by"},
		{Source: "Nobody", Target: "Mikasa", Relation: "unknown"},
	}

	g := Build(entities, relations, nil)

	if got := g.NumEntities(); got != 2 {
		t.Fatalf("NumEntities() = %d, want 2", got)
	}
	if got := g.NumRelations(); got != 1 {
		t.Fatalf("NumRelations() = %d, want 1", got)
	}
}

func TestBuildNormalizesRelationEndpoints(t *testing.T) {
	norm := NewNormalizer(map[string]string{"艾伦": "Eren"})
	entities := []common.EntityRecord{
		entityRecord("Eren", "scene one"),
		entityRecord("Mikasa", "scene one"),
	}
	relations := []common.RelationRecord{
		{Source: " 艾伦 ", Target: "Mikasa", Relation: "protects"},
	}

	g := Build(entities, relations, norm)

	edges := g.EdgesOf("Eren")
	if len(edges) != 1 {
		t.Fatalf("EdgesOf(Eren) returned %d edges, want 1", len(edges))
	}
	if edges[0].Phrase() != "Eren -> protects -> Mikasa" {
		t.Errorf("Phrase() = %q", edges[0].Phrase())
	}
}

func TestEdgesOfReturnsOutgoingOnly(t *testing.T) {
	entities := []common.EntityRecord{
		entityRecord("A"), entityRecord("B"),
	}
	relations := []common.RelationRecord{
		{Source: "A", Target: "B", Relation: "loves"},
	}

	g := Build(entities, relations, nil)

	if got := len(g.EdgesOf("A")); got != 1 {
		t.Errorf("EdgesOf(A) = %d edges, want 1", got)
	}
	if got := len(g.EdgesOf("B")); got != 0 {
		t.Errorf("EdgesOf(B) = %d edges, want 0", got)
	}
	if g.EdgesOf("C") != nil {
		t.Error("EdgesOf(C) should be nil for an unknown entity")
	}
}

func TestSubgraph(t *testing.T) {
	entities := []common.EntityRecord{
		entityRecord("A"), entityRecord("B"), entityRecord("C"),
	}
	relations := []common.RelationRecord{
		{Source: "A", Target: "B", Relation: "r1"},
		{Source: "B", Target: "C", Relation: "r2"},
		{Source: "C", Target: "A", Relation: "r3"},
	}

	g := Build(entities, relations, nil)

	tests := []struct {
		name    string
		members []string
		want    []string
	}{
		{"both endpoints inside", []string{"A", "B"}, []string{"A -> r1 -> B"}},
		{"full set keeps everything", []string{"A", "B", "C"}, []string{"A -> r1 -> B", "B -> r2 -> C", "C -> r3 -> A"}},
		{"single member has no edges", []string{"A"}, nil},
		{"unknown members are ignored", []string{"A", "B", "Ghost"}, []string{"A -> r1 -> B"}},
		{"empty set", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range g.Subgraph(tt.members) {
				got = append(got, e.Phrase())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subgraph(%v) = %v, want %v", tt.members, got, tt.want)
			}
		})
	}
}

func TestContentsOf(t *testing.T) {
	g := Build([]common.EntityRecord{entityRecord("Eren", "s1", "s2")}, nil, nil)

	contents, ok := g.ContentsOf("Eren")
	if !ok {
		t.Fatal("ContentsOf(Eren) reported unknown entity")
	}
	if len(contents.Contents) != 2 {
		t.Errorf("ContentsOf(Eren) returned %d contents, want 2", len(contents.Contents))
	}

	if _, ok := g.ContentsOf("Ghost"); ok {
		t.Error("ContentsOf(Ghost) should report unknown entity")
	}
}

func TestBuildSkipsDuplicateEntities(t *testing.T) {
	entities := []common.EntityRecord{
		entityRecord("Eren", "first"),
		entityRecord("Eren", "second"),
	}

	g := Build(entities, nil, nil)

	if got := g.NumEntities(); got != 1 {
		t.Fatalf("NumEntities() = %d, want 1", got)
	}
	contents, _ := g.ContentsOf("Eren")
	if len(contents.Contents) != 1 || contents.Contents[0].Body != "first" {
		t.Errorf("first record should win, got %+v", contents)
	}
}
