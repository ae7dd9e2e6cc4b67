package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	mockproviders "lcm-hq/intellimap/internal/providers"
	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/mapper"
)

const testDeployment = "mapper-test"

// runCLI executes the root command with args and returns stdout and stderr.
// Flag variables are package globals, so they are reset before every run.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cfgFile, envFile, logLevel, verbose = "", "", "error", false
	mapFlags = struct {
		targetsFile string
		targets     []string
		prompt      string
		promptFile  string
		output      string
		clientID    string
		metricsAddr string
		concurrency int
		structured  bool
		watch       bool
	}{}
	detectFlags.output, detectFlags.structured = "", false
	validateFlags.targetsFile, validateFlags.targets = "", nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setAzureEnv(t *testing.T, endpoint string) {
	t.Helper()
	t.Setenv("INTELLIMAP_AZURE_ENDPOINT", endpoint)
	t.Setenv("INTELLIMAP_AZURE_API_KEY", "test-key")
	t.Setenv("INTELLIMAP_AZURE_DEPLOYMENT", testDeployment)
	t.Setenv("INTELLIMAP_AZURE_API_VERSION", "2023-05-15")
	t.Setenv("INTELLIMAP_RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("INTELLIMAP_LIMITS_RATE_DELAY", "1ms")
	t.Setenv("INTELLIMAP_LIMITS_RATE_STORAGE", "memory")
}

type jsonReport struct {
	Input     string            `json:"input"`
	Format    string            `json:"format"`
	Fields    []json.RawMessage `json:"fields"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Error     string            `json:"error"`
}

func decodeReports(t *testing.T, out string) []jsonReport {
	t.Helper()
	var reports []jsonReport
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r jsonReport
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode report: %v\n%s", err, out)
		}
		reports = append(reports, r)
	}
	return reports
}

func TestMapCommand_JSONOutput(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse(mockproviders.DeploymentPath(testDeployment),
		mockproviders.MockChatResponse(`[{"F1":"Acme","confidence":90}]`))
	setAzureEnv(t, server.URL())

	dir := t.TempDir()
	first := writeFile(t, dir, "vendor.txt", "[*NAME:Acme,CITY:Oslo]")
	second := writeFile(t, dir, "kv.txt", "name=Acme\ncity=Oslo\n")

	stdout, stderr, err := runCLI(t, "map",
		"--target", "F1:Name",
		"--prompt", "Map the vendor record",
		"-o", "json",
		first, second,
	)
	if err != nil {
		t.Fatalf("map error = %v\nstderr: %s", err, stderr)
	}

	reports := decodeReports(t, stdout)
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Input != first || reports[1].Input != second {
		t.Errorf("reports out of input order: %q, %q", reports[0].Input, reports[1].Input)
	}
	if reports[0].Format != "delimited_dictionary" {
		t.Errorf("Format = %q, want delimited_dictionary", reports[0].Format)
	}
	for _, r := range reports {
		if r.Succeeded != 1 || len(r.Fields) != 1 {
			t.Errorf("%s: succeeded=%d fields=%d, want 1 and 1", r.Input, r.Succeeded, len(r.Fields))
		}
	}
	if server.GetRequestCount() != 2 {
		t.Errorf("requests = %d, want 2", server.GetRequestCount())
	}
	if !strings.Contains(stderr, "2 batches, 0 failed") {
		t.Errorf("progress summary missing from stderr: %q", stderr)
	}
}

func TestMapCommand_PartialFailureExitCode(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse(mockproviders.DeploymentPath(testDeployment), mockproviders.MockAuthError())
	setAzureEnv(t, server.URL())

	input := writeFile(t, t.TempDir(), "in.txt", "a=1\n")
	_, _, err := runCLI(t, "map", "--target", "F1:Name", "--prompt", "Map", input)
	if !errors.Is(err, cli.ErrPartial) {
		t.Fatalf("error = %v, want ErrPartial", err)
	}
	if got := cli.ExitCode(err); got != cli.ExitPartial {
		t.Errorf("ExitCode() = %d, want %d", got, cli.ExitPartial)
	}
}

func TestMapCommand_MissingAzureConfig(t *testing.T) {
	setAzureEnv(t, "")

	input := writeFile(t, t.TempDir(), "in.txt", "a=1\n")
	_, _, err := runCLI(t, "map", "--target", "F1:Name", "--prompt", "Map", input)
	if got := cli.ExitCode(err); got != cli.ExitConfig {
		t.Errorf("ExitCode(%v) = %d, want %d", err, got, cli.ExitConfig)
	}
}

func TestMapCommand_RequiresTargets(t *testing.T) {
	_, _, err := runCLI(t, "map", "--prompt", "Map")
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "targets" {
		t.Errorf("error = %v, want targets config error", err)
	}
}

func TestMapCommand_RejectsYAML(t *testing.T) {
	_, _, err := runCLI(t, "map", "--target", "F1:Name", "--prompt", "Map", "-o", "yaml")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("error = %v, want config error", err)
	}
}

func TestDetectCommand(t *testing.T) {
	input := writeFile(t, t.TempDir(), "in.txt", "[*DOC_ID:7,NAME:Acme]\n[*DOC_ID:8,NAME:Beta]")

	stdout, _, err := runCLI(t, "detect", "-o", "json", input)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}

	var rep detectReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if rep.Format != "delimited_dictionary" {
		t.Errorf("Format = %q", rep.Format)
	}
	if len(rep.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(rep.Records))
	}
	if rep.Records[0].ID != "doc_7" {
		t.Errorf("ID = %q, want doc_7", rep.Records[0].ID)
	}
	if f := rep.Records[1].Fields[1]; f.Key != "NAME" || f.Value == nil || *f.Value != "Beta" {
		t.Errorf("field = %+v", f)
	}
}

func TestDetectCommand_TextOutput(t *testing.T) {
	input := writeFile(t, t.TempDir(), "kv.txt", "name=Acme\n")

	stdout, _, err := runCLI(t, "detect", input)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(stdout, "key_value_lines (1 records)") || !strings.Contains(stdout, `name = "Acme"`) {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestValidateCommand(t *testing.T) {
	setAzureEnv(t, "https://example.openai.azure.com")
	dir := t.TempDir()
	targets := writeFile(t, dir, "fields.txt", "F1:Name\nF2:Email\n")
	input := writeFile(t, dir, "in.txt", "name=Acme\n")

	stdout, _, err := runCLI(t, "validate", "--targets", targets, input)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, stdout)
	}
	for _, want := range []string{"✓ configuration valid", "✓ 2 target fields", fmt.Sprintf("✓ %s: key_value_lines, 1 records", input)} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestValidateCommand_ReportsMissingAzure(t *testing.T) {
	setAzureEnv(t, "")

	stdout, _, err := runCLI(t, "validate")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("error = %v, want config error", err)
	}
	if !strings.Contains(stdout, "✗ azure") {
		t.Errorf("output missing azure problem:\n%s", stdout)
	}
}

func TestExitError(t *testing.T) {
	ok := &batchReport{Input: "a", AggregateResult: &mapper.AggregateResult{Succeeded: 1}}
	partial := &batchReport{Input: "b", AggregateResult: &mapper.AggregateResult{Failed: 1}}
	failed := &batchReport{Input: "c", err: errors.New("boom")}
	cancelled := &batchReport{Input: "d", err: &mapper.CancellationError{Stage: "completion", Cause: context.Canceled}}

	tests := []struct {
		name    string
		reports []*batchReport
		want    int
	}{
		{"all ok", []*batchReport{ok}, cli.ExitOK},
		{"partial", []*batchReport{ok, partial}, cli.ExitPartial},
		{"failure beats partial", []*batchReport{partial, failed}, cli.ExitFailure},
		{"interrupt beats failure", []*batchReport{failed, cancelled}, cli.ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cli.ExitCode(exitError(tt.reports)); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMapCommand_ResolvesSecretReferences(t *testing.T) {
	server := mockproviders.NewMockServer()
	defer server.Close()
	server.SetResponse(mockproviders.DeploymentPath(testDeployment), mockproviders.MockChatResponse(`[{"F1":"x"}]`))
	setAzureEnv(t, server.URL())
	t.Setenv("INTELLIMAP_AZURE_API_KEY", "${secret:azure-key}")
	t.Setenv("INTELLIMAP_SECRET_AZURE_KEY", "resolved-key")

	input := writeFile(t, t.TempDir(), "in.txt", "a=1\n")
	if _, stderr, err := runCLI(t, "map", "--target", "F1:Name", "--prompt", "Map", input); err != nil {
		t.Fatalf("map error = %v\n%s", err, stderr)
	}

	req, ok := server.LastRequest()
	if !ok {
		t.Fatal("no request captured")
	}
	if got := req.Header.Get("api-key"); got != "resolved-key" {
		t.Errorf("api-key = %q, want resolved-key", got)
	}
}

func TestMapCommand_UnresolvedSecret(t *testing.T) {
	setAzureEnv(t, "https://example.openai.azure.com")
	t.Setenv("INTELLIMAP_AZURE_API_KEY", "${secret:absent}")

	input := writeFile(t, t.TempDir(), "in.txt", "a=1\n")
	_, _, err := runCLI(t, "map", "--target", "F1:Name", "--prompt", "Map", input)
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("error = %v, want config error", err)
	}
}
