package jsonscan

import (
	"encoding/json"
	"testing"
)

func TestStripQuoted(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":"Product"}`, `{"":""}`},
		{`{"a":"say \"Prod\" now"}`, `{"":""}`},
		{`[x: Prod]`, `[x: Prod]`},
		{`"\\" Prod`, `"" Prod`},
	}
	for _, tt := range tests {
		if got := StripQuoted(tt.in); got != tt.want {
			t.Errorf("StripQuoted(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"object", `{"a":1}`, true},
		{"nested", `[{"a":[1,2]},{"b":{}}]`, true},
		{"brackets inside strings ignored", `{"a":"]}["}`, true},
		{"unclosed", `{"a":[1,2}`, false},
		{"mismatched", `[}`, false},
		{"extra close", `{}}`, false},
		{"open string", `{"a:1}`, false},
		{"escaped quote", `{"a":"x\"y"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Balanced(tt.in); got != tt.want {
				t.Errorf("Balanced(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanner_BareToken(t *testing.T) {
	sc := New(nil)

	tests := []struct {
		name    string
		in      string
		want    string
		wantHit bool
	}{
		{"quoted token ignored", `{"status":"Production"}`, "", false},
		{"bare token", `{"status":Production}`, "Production", true},
		{"prefix of longer word", `{"s":Productive}`, "Product", true},
		{"mid-word ignored", `{"s":Reproduce}`, "", false},
		{"no tokens", `{"a":true,"b":null}`, "", false},
		{"delimited text", `[*F1:Prod Line]`, "Prod", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := sc.BareToken(tt.in)
			if hit != tt.wantHit || got != tt.want {
				t.Errorf("BareToken(%q) = (%q, %v), want (%q, %v)", tt.in, got, hit, tt.want, tt.wantHit)
			}
		})
	}
}

func TestScanner_CustomBlacklist(t *testing.T) {
	sc := New([]string{" Acme ", ""})
	if got := sc.Blacklist(); len(got) != 1 || got[0] != "Acme" {
		t.Fatalf("unexpected blacklist %v", got)
	}
	if _, hit := sc.BareToken(`{"a":Production}`); hit {
		t.Error("default tokens must not apply when a custom list is set")
	}
	if _, hit := sc.BareToken(`{"a":AcmeCorp}`); !hit {
		t.Error("expected custom token to match")
	}
}

func TestScanner_Valid(t *testing.T) {
	sc := New(nil)

	tests := []struct {
		in   string
		want bool
	}{
		{`{"a":"b"}`, true},
		{`  [{"a":"b"}]  `, true},
		{`[1,2,3]`, true},
		{`{"a":"b"`, false},
		{`{"a":Product}`, false},
		{`Here you go: [{"a":"b"}]`, false},
		{`[`, false},
	}
	for _, tt := range tests {
		if got := sc.Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if sc.LooksLikeJSON(`[1,2,3]`) {
		t.Error("LooksLikeJSON requires a key separator")
	}
	if !sc.LooksLikeJSON(`[{"a":1}]`) {
		t.Error("expected object array to look like JSON")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json[1]```", `[1]`},
		{`  [1]  `, `[1]`},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScanner_Extract(t *testing.T) {
	sc := New(nil)

	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{
			name:   "array inside prose",
			in:     `Sure! Here is the mapping: [{"field_code":"F1"}] Let me know.`,
			want:   `[{"field_code":"F1"}]`,
			wantOK: true,
		},
		{
			name:   "object wrapped into array",
			in:     `Result -> {"field_code":"F1","confidence":90} done`,
			want:   `[{"field_code":"F1","confidence":90}]`,
			wantOK: true,
		},
		{
			name:   "invalid array falls back to object",
			in:     `[Prod note] {"a":"b"}`,
			want:   `[{"a":"b"}]`,
			wantOK: true,
		},
		{
			name: "nothing extractable",
			in:   `no json here`,
		},
		{
			name: "bare token inside span",
			in:   `[{"a":Production}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sc.Extract(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Extract() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestScanner_Repair(t *testing.T) {
	sc := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare multi-word value",
			in:   `[{"field":Production Ready,"confidence":85}]`,
			want: `[{"field":"Production Ready","confidence":85}]`,
		},
		{
			name: "bare identifier before brace",
			in:   `{"status": active}`,
			want: `{"status": "active"}`,
		},
		{
			name: "literals untouched",
			in:   `{"a": true, "b": null, "c": false}`,
			want: `{"a": true, "b": null, "c": false}`,
		},
		{
			name: "trailing commas",
			in:   `[{"a":"b",},]`,
			want: `[{"a":"b"}]`,
		},
		{
			name: "trailing comma inside string kept",
			in:   `{"a":",}"}`,
			want: `{"a":",}"}`,
		},
		{
			name: "bare keys",
			in:   `[{field_code: "F1", confidence: 90}]`,
			want: `[{"field_code": "F1", "confidence": 90}]`,
		},
		{
			name: "blacklisted token followed by punctuation",
			in:   `{"a": Product-42}`,
			want: `{"a": "Product"-42}`,
		},
		{
			name: "quoted value untouched",
			in:   `{"a":"Production"}`,
			want: `{"a":"Production"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sc.Repair(tt.in); got != tt.want {
				t.Errorf("Repair(%q)\n got  %q\n want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanner_RepairProducesDecodableJSON(t *testing.T) {
	sc := New(nil)
	inputs := []string{
		`[{"field":Production Ready,"confidence":85}]`,
		`[{field_code: F1, field_name: Color, value: Process Blue, confidence: 70,},]`,
	}
	for _, in := range inputs {
		var v []map[string]any
		if err := json.Unmarshal([]byte(sc.Repair(in)), &v); err != nil {
			t.Errorf("repaired %q does not decode: %v", in, err)
		}
	}
}
