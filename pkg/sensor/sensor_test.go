package sensor

import (
	"reflect"
	"strings"
	"testing"
)

const westWeirJSON = `{
  "sites": [
    {
      "id": "site-1",
      "name": "West Weir",
      "assets": [
        {
          "id": "pump-a",
          "name": "Pump A",
          "type": "pump",
          "tags": [
            {"id": "flow", "label": "Flow", "unit": "L/s", "points": [
              {"ts": "2024-01-01T00:00:00Z", "value": 5.0, "q": "good"},
              {"ts": "2024-01-01T00:05:00Z", "value": 7.2, "q": "bad"}
            ]},
            {"id": "pressure", "label": "Pressure", "unit": "kPa", "points": [
              {"ts": "2024-01-01T00:00:00Z", "value": 120, "q": "good"}
            ]}
          ]
        }
      ]
    },
    {
      "id": "site-2",
      "name": "East Channel",
      "assets": [
        {"id": "gate-1", "name": "Gate 1", "tags": [
          {"id": "level", "label": "Level", "unit": "m", "points": []}
        ]}
      ]
    }
  ]
}`

func decodeWestWeir(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Decode(strings.NewReader(westWeirJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ds
}

func TestDecodeWireFormat(t *testing.T) {
	ds := decodeWestWeir(t)

	if len(ds.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(ds.Sites))
	}
	flow := ds.Sites[0].Assets[0].Tags[0]
	if flow.ID != "flow" || flow.Unit != "L/s" {
		t.Fatalf("unexpected tag: %+v", flow)
	}
	if len(flow.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(flow.Samples))
	}
	if flow.Samples[1].Quality != QualityBad || flow.Samples[1].Value != 7.2 {
		t.Fatalf("unexpected sample: %+v", flow.Samples[1])
	}
	if ds.Sites[0].Assets[0].Type != "pump" {
		t.Fatalf("expected asset type pump, got %q", ds.Sites[0].Assets[0].Type)
	}
	if ds.TagCount() != 3 {
		t.Fatalf("expected 3 tags, got %d", ds.TagCount())
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"sites": [`)); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
sites:
  - id: s1
    name: West Weir
    assets:
      - id: a1
        name: Pump A
        tags:
          - id: flow
            label: Flow
            unit: L/s
            points:
              - {ts: "2024-01-01T00:00:00Z", value: 5, q: good}
`
	ds, err := DecodeYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	tags := Flatten(ds)
	if len(tags) != 1 || tags[0].Samples[0].Quality != QualityGood {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}

func TestFlattenOrderAndPaths(t *testing.T) {
	tags := Flatten(decodeWestWeir(t))

	var ids []string
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	if want := []string{"flow", "pressure", "level"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected order %v, got %v", want, ids)
	}

	if tags[0].FullPath != "West Weir > Pump A > Flow" {
		t.Fatalf("unexpected full path %q", tags[0].FullPath)
	}
	if tags[2].SiteName != "East Channel" || tags[2].AssetName != "Gate 1" {
		t.Fatalf("unexpected context: %+v", tags[2])
	}
}

func TestFlattenDeterministic(t *testing.T) {
	ds := decodeWestWeir(t)
	if !reflect.DeepEqual(Flatten(ds), Flatten(ds)) {
		t.Fatal("flatten is not deterministic")
	}
}

func TestFlattenNil(t *testing.T) {
	if tags := Flatten(nil); len(tags) != 0 {
		t.Fatalf("expected no tags, got %d", len(tags))
	}
}

func TestFlattenerMemoizesByReference(t *testing.T) {
	ds := decodeWestWeir(t)
	var f Flattener

	first := f.Tags(ds)
	second := f.Tags(ds)
	if &first[0] != &second[0] {
		t.Fatal("expected the memoized slice for the same dataset")
	}
	if f.Walks() != 1 {
		t.Fatalf("expected 1 walk, got %d", f.Walks())
	}

	other := decodeWestWeir(t)
	third := f.Tags(other)
	if &third[0] == &first[0] {
		t.Fatal("expected a fresh slice for a different dataset")
	}
	if f.Walks() != 2 {
		t.Fatalf("expected 2 walks, got %d", f.Walks())
	}
}

func TestFindTag(t *testing.T) {
	tags := Flatten(decodeWestWeir(t))
	if tag, ok := FindTag(tags, "pressure"); !ok || tag.Unit != "kPa" {
		t.Fatalf("expected pressure tag, got %+v (%v)", tag, ok)
	}
	if _, ok := FindTag(tags, "missing"); ok {
		t.Fatal("expected missing tag lookup to fail")
	}
}

func TestParseQuality(t *testing.T) {
	for _, q := range AllQualities {
		got, err := ParseQuality(string(q))
		if err != nil || got != q {
			t.Fatalf("ParseQuality(%q) = %q, %v", q, got, err)
		}
	}
	if _, err := ParseQuality("excellent"); err == nil {
		t.Fatal("expected error for unknown quality")
	}
}
