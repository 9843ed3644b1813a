package expr

import (
	"testing"
)

// TestCompiledCodeMatchesEvaluation compiles an expression in option mode,
// evaluates the generated code and compares it with direct evaluation
func TestCompiledCodeMatchesEvaluation(t *testing.T) {
	var gotThis any
	var gotArg any
	data := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": Func(func(this any, args ...any) (any, error) {
					gotThis = this
					gotArg = args[0]
					return true, nil
				}),
				"d": true,
				"e": map[string]any{"f": "result"},
			},
		},
	}

	p := MustParse(`a.b.c("g") && a.b.d && a.b.e.f`)
	code := Compile(p, Options{Mode: ModeOption})

	fromCode, err := code.Eval(Env{Vars: map[string]any{"data": data}})
	if err != nil {
		t.Fatalf("Eval failed: %v\ncode: %s", err, code)
	}
	direct, err := Evaluate(p.Body, data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if fromCode != "result" {
		t.Errorf("Expected compiled code to yield 'result', got %v", fromCode)
	}
	if fromCode != direct {
		t.Errorf("Expected compiled and direct evaluation to agree, got %v and %v", fromCode, direct)
	}
	if gotArg != "g" {
		t.Errorf("Expected function argument 'g', got %v", gotArg)
	}
	holder := data["a"].(map[string]any)["b"].(map[string]any)
	if m, ok := gotThis.(map[string]any); !ok || m["d"] != holder["d"] {
		t.Errorf("Expected function receiver to be a.b, got %v", gotThis)
	}
}

// TestCompileOutput verifies the printed code for each mode and type
func TestCompileOutput(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want string
	}{
		{
			name: "option getter",
			src:  "a.b",
			opts: Options{Mode: ModeOption},
			want: `thelpers.getter(data, ["a", "b"])`,
		},
		{
			name: "method call",
			src:  `a.b.c("g")`,
			opts: Options{Mode: ModeOption},
			want: `thelpers.getter(data, ["a", "b", "c"]).apply(thelpers.getter(data, ["a", "b"]), ["g"])`,
		},
		{
			name: "dirty checking call",
			src:  `a.b.c("g")`,
			opts: Options{Mode: ModeDirtyChecking},
			want: `thelpers.callIFun(thelpers.getter(data, ["a", "b", "c"]), thelpers.getter(data, ["a", "b"]), ["g"])`,
		},
		{
			name: "plain function call",
			src:  `format(x)`,
			opts: Options{Mode: ModeOption},
			want: `thelpers.getter(data, ["format"]).apply(data, [thelpers.getter(data, ["x"])])`,
		},
		{
			name: "number cast",
			src:  "count",
			opts: Options{Mode: ModeOption, Type: TypeNumber},
			want: `Number(thelpers.getter(data, ["count"]))`,
		},
		{
			name: "null is not cast",
			src:  "null",
			opts: Options{Mode: ModeOption, Type: TypeNumber},
			want: `null`,
		},
		{
			name: "text is escaped",
			src:  "title",
			opts: Options{Mode: ModeText},
			want: `markupGenerator.escape(thelpers.wrapUndef(thelpers.getter(data, ["title"])))`,
		},
		{
			name: "text without escaping",
			src:  "title",
			opts: Options{Mode: ModeText, NoEscape: true},
			want: `thelpers.wrapUndef(thelpers.getter(data, ["title"]))`,
		},
		{
			name: "string bare variable stays raw",
			src:  "title",
			opts: Options{Mode: ModeOption, Type: TypeString},
			want: `thelpers.getter(data, ["title"])`,
		},
		{
			name: "string expression goes through text",
			src:  "title + '!'",
			opts: Options{Mode: ModeOption, Type: TypeString},
			want: `markupGenerator.escape(thelpers.wrapUndef((thelpers.getter(data, ["title"]) + "!")))`,
		},
		{
			name: "attribute",
			src:  "cls",
			opts: Options{Mode: ModeAttribute},
			want: `thelpers.wrapUndef(thelpers.getter(data, ["cls"]))`,
		},
		{
			name: "translation function is global",
			src:  "rk('Hello')",
			opts: Options{Mode: ModeOption},
			want: `rk("Hello")`,
		},
		{
			name: "custom data identifier and index",
			src:  "items[i].name",
			opts: Options{Mode: ModeOption, Data: "scope"},
			want: `thelpers.getter(scope, ["items", thelpers.getter(scope, ["i"]), "name"])`,
		},
		{
			name: "literal text is escaped at compile time",
			src:  "'<b>'",
			opts: Options{Mode: ModeText},
			want: `"&lt;b&gt;"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(MustParse(tt.src), tt.opts).String()
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// TestCompiledTextEvaluation verifies undefined handling and escaping at evaluation time
func TestCompiledTextEvaluation(t *testing.T) {
	env := Env{Vars: map[string]any{"data": map[string]any{"html": "<i>x</i>"}}}

	v, err := Compile(MustParse("html"), Options{Mode: ModeText}).Eval(env)
	if err != nil {
		t.Fatal(err)
	}
	if v != "&lt;i&gt;x&lt;/i&gt;" {
		t.Errorf("Expected escaped markup, got %v", v)
	}

	v, err = Compile(MustParse("missing.deep"), Options{Mode: ModeText}).Eval(env)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("Expected empty text for undefined value, got %q", v)
	}
}

func TestConcat(t *testing.T) {
	got := Concat(Lit("a"), Lit("b"), Raw("x"), Lit("c")).String()
	if got != `(("ab" + x) + "c")` {
		t.Errorf("Expected merged concatenation, got %s", got)
	}
	if Concat().String() != `""` {
		t.Errorf("Expected empty string literal, got %s", Concat())
	}
}
