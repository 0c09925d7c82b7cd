package ai

import (
	"context"
	"errors"
	"testing"
)

type recordingRuntime struct {
	got  GenerateRequest
	resp *GenerateResponse
	err  error
}

func (r *recordingRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	r.got = req
	return r.resp, r.err
}

func TestGatewayBuildsMessages(t *testing.T) {
	rt := &recordingRuntime{resp: &GenerateResponse{Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: "  análise  \n"}}}}}
	gw := NewGateway(rt, GatewayOptions{Model: "gemini-2.0-flash-lite", MaxTokens: 256, Temperature: 0.2})

	out, err := gw.Generate(context.Background(), Prompt{System: "sys", Parts: []string{"first", "", "second"}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != "análise" {
		t.Fatalf("expected trimmed text, got %q", out)
	}
	want := []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "first"}, {Role: RoleUser, Content: "second"}}
	if len(rt.got.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), rt.got.Messages)
	}
	for i := range want {
		if rt.got.Messages[i] != want[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, want[i], rt.got.Messages[i])
		}
	}
	if rt.got.Model != "gemini-2.0-flash-lite" || rt.got.MaxTokens != 256 || rt.got.Temperature != 0.2 {
		t.Fatalf("options not forwarded: %+v", rt.got)
	}
}

func TestGatewayEmptyAnswerIsNotAnError(t *testing.T) {
	gw := NewGateway(&recordingRuntime{resp: &GenerateResponse{}}, GatewayOptions{Model: "m"})
	out, err := gw.Generate(context.Background(), Prompt{Parts: []string{"hi"}})
	if err != nil || out != "" {
		t.Fatalf("expected empty answer without error, got %q, %v", out, err)
	}
}

func TestGatewayPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	gw := NewGateway(&recordingRuntime{err: boom}, GatewayOptions{Model: "m"})
	if _, err := gw.Generate(context.Background(), Prompt{Parts: []string{"hi"}}); !errors.Is(err, boom) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if _, err := gw.Generate(context.Background(), Prompt{}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestRegistryProviders(t *testing.T) {
	for _, name := range []string{ProviderGemini, ProviderOpenRouter, ProviderOllama} {
		if _, ok := GetRuntime(name, RuntimeConfig{}); !ok {
			t.Fatalf("provider %s not registered", name)
		}
	}
	if _, err := ResolveRuntime("nope", RuntimeConfig{}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("gemini-2.0-flash-lite", 1000, 1000)
	if !ok || cost <= 0 {
		t.Fatalf("expected a priced model, got %v %v", cost, ok)
	}
	if _, ok := EstimateCostUSD("unknown/model", 10, 10); ok {
		t.Fatalf("unknown model should not be priced")
	}
}

func TestModelsSortedAndFiltered(t *testing.T) {
	all := Models("")
	if len(all) == 0 {
		t.Fatal("empty catalog")
	}
	for i := 1; i < len(all); i++ {
		a, b := all[i-1], all[i]
		if a.Provider > b.Provider || (a.Provider == b.Provider && a.Name > b.Name) {
			t.Fatalf("not sorted at %d: %v then %v", i, a, b)
		}
	}
	for _, mi := range Models(ProviderOllama) {
		if mi.Provider != ProviderOllama {
			t.Fatalf("unexpected provider %q", mi.Provider)
		}
	}
	if got := Models("nope"); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}
