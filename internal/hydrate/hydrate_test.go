package hydrate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type snapshotFixture struct {
	Description string `json:"description"`
	Cases       []struct {
		Name    string          `json:"name"`
		Exclude string          `json:"exclude"`
		Input   any             `json:"input"`
		Encoded json.RawMessage `json:"encoded"`
	} `json:"cases"`
}

func TestEncoderFromFixtures(t *testing.T) {
	fx := loadFixture[snapshotFixture](t, "snapshots.json")
	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			enc := NewEncoder(WithEncodeHook(Exclude(SplitList(tc.Exclude)...)))
			payload, err := enc.Encode(Context{Key: "app"}, tc.Input)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			var got, want any
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("unmarshal encoded: %v", err)
			}
			if err := json.Unmarshal(tc.Encoded, &want); err != nil {
				t.Fatalf("unmarshal expected: %v", err)
			}
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("encoded mismatch:\nwant: %s\n got: %s", tc.Encoded, payload)
			}

		})
	}
}

func TestEncoderLeavesInputUntouched(t *testing.T) {
	record := map[string]any{"keep": 1, "drop": 2}
	if _, err := NewEncoder(WithEncodeHook(Exclude("drop"))).Encode(Context{}, record); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := record["drop"]; !ok {
		t.Fatalf("expected input record to keep excluded field")
	}
}

func TestDecoderIntegersAndHooks(t *testing.T) {
	dec := NewDecoder[any](
		WithIntegers[any](),
		WithPreHook[any](Exclude("Content")),
	)
	got, err := dec.Decode(Context{Key: "app"}, []byte(`{"count":2,"ratio":0.5,"Content":"x","items":[1,2]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"count": 2, "ratio": 0.5, "items": []any{1, 2}}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderScalarsDefaultToFloat(t *testing.T) {
	got, err := NewDecoder[any]().Decode(Context{}, []byte(`7`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != float64(7) {
		t.Fatalf("expected float64 7, got %#v", got)
	}
}

func TestDecoderTypedTargetAndPostHook(t *testing.T) {
	type counter struct {
		Count int `json:"count"`
	}
	dec := NewDecoder[counter](WithPostHook[counter](func(_ Context, c *counter) error {
		if c.Count < 0 {
			return errors.New("negative count")
		}
		return nil
	}))

	got, err := dec.Decode(Context{}, []byte(`{"count":4}`))
	if err != nil || got.Count != 4 {
		t.Fatalf("unexpected decode: %+v %v", got, err)
	}
	if _, err := dec.Decode(Context{Key: "bad"}, []byte(`{"count":-1}`)); err == nil || !strings.Contains(err.Error(), "post-hook") {
		t.Fatalf("expected post-hook failure, got %v", err)
	}
}

func TestDecoderRejectsEmptyAndInvalidPayloads(t *testing.T) {
	dec := NewDecoder[any]()
	if _, err := dec.Decode(Context{Key: "k"}, nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := dec.Decode(Context{Key: "k"}, []byte(`{`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" a, ,b ,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected split: %v", got)
	}
	if got := SplitList("  "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", name, err)
	}
	return out
}
