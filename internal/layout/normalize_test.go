package layout

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Section
		want []Section
	}{
		{
			name: "empty input",
			in:   nil,
			want: []Section{},
		},
		{
			name: "three in one layer overflow into a new full row",
			in: []Section{
				{ID: SectionName, Visible: true, Layer: 1, Width: WidthFull},
				{ID: SectionContact, Visible: true, Layer: 1, Width: WidthFull},
				{ID: SectionProfile, Visible: true, Layer: 1, Width: WidthFull},
			},
			want: []Section{
				{ID: SectionName, Visible: true, Layer: 1, Width: WidthHalf},
				{ID: SectionContact, Visible: true, Layer: 1, Width: WidthHalf},
				{ID: SectionProfile, Visible: true, Layer: 2, Width: WidthFull},
			},
		},
		{
			name: "sparse and negative layers are compacted in ascending order",
			in: []Section{
				{ID: SectionSkills, Visible: true, Layer: 9, Width: WidthHalf},
				{ID: SectionProfile, Visible: true, Layer: -3, Width: WidthHalf},
				{ID: SectionEducation, Visible: true, Layer: 4, Width: WidthFull},
			},
			want: []Section{
				{ID: SectionProfile, Visible: true, Layer: 1, Width: WidthFull},
				{ID: SectionEducation, Visible: true, Layer: 2, Width: WidthFull},
				{ID: SectionSkills, Visible: true, Layer: 3, Width: WidthFull},
			},
		},
		{
			name: "hidden sections trail and keep their values",
			in: []Section{
				{ID: SectionName, Visible: false, Layer: 7, Width: WidthHalf},
				{ID: SectionContact, Visible: true, Layer: 2, Width: WidthHalf},
			},
			want: []Section{
				{ID: SectionContact, Visible: true, Layer: 1, Width: WidthFull},
				{ID: SectionName, Visible: false, Layer: 7, Width: WidthHalf},
			},
		},
		{
			name: "duplicate ids keep the first occurrence",
			in: []Section{
				{ID: SectionName, Name: "first", Visible: true, Layer: 1},
				{ID: SectionName, Name: "second", Visible: true, Layer: 1},
			},
			want: []Section{
				{ID: SectionName, Name: "first", Visible: true, Layer: 1, Width: WidthFull},
			},
		},
		{
			name: "overflow from several rows follows original order",
			in: []Section{
				{ID: SectionSkills, Visible: true, Layer: 2},
				{ID: SectionLanguages, Visible: true, Layer: 2},
				{ID: SectionEducation, Visible: true, Layer: 2},
				{ID: SectionName, Visible: true, Layer: 1},
				{ID: SectionContact, Visible: true, Layer: 1},
				{ID: SectionProfile, Visible: true, Layer: 1},
			},
			want: []Section{
				{ID: SectionName, Visible: true, Layer: 1, Width: WidthHalf},
				{ID: SectionContact, Visible: true, Layer: 1, Width: WidthHalf},
				{ID: SectionSkills, Visible: true, Layer: 2, Width: WidthHalf},
				{ID: SectionLanguages, Visible: true, Layer: 2, Width: WidthHalf},
				{ID: SectionEducation, Visible: true, Layer: 3, Width: WidthFull},
				{ID: SectionProfile, Visible: true, Layer: 4, Width: WidthFull},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func randomSections(rng *rand.Rand) []Section {
	n := rng.Intn(10)
	widths := []Width{WidthFull, WidthHalf, ""}
	out := make([]Section, n)
	for i := range out {
		out[i] = Section{
			ID:      AllSections[rng.Intn(len(AllSections))],
			Visible: rng.Intn(4) != 0,
			Layer:   rng.Intn(9) - 3,
			Width:   widths[rng.Intn(len(widths))],
		}
	}
	return out
}

func TestNormalizeInvariantsHoldForArbitraryInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		in := randomSections(rng)
		got := Normalize(in)
		if err := Verify(got); err != nil {
			t.Fatalf("Expected invariants to hold for %+v, got %v (output %+v)", in, err, got)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		once := Normalize(randomSections(rng))
		twice := Normalize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Expected normalize to be idempotent (-once +twice):\n%s", diff)
		}
	}
}

func TestDefaultRegistryIsNormalized(t *testing.T) {
	reg := DefaultRegistry()
	if err := reg.Validate(); err != nil {
		t.Fatalf("Expected default registry to be valid, got %v", err)
	}
	if diff := cmp.Diff(reg.Sections, Normalize(reg.Sections)); diff != "" {
		t.Errorf("Expected default registry to be a fixed point (-default +normalized):\n%s", diff)
	}
}
