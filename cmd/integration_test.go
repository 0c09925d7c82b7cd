package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `Region,Amount
North,1
South,2
North,3
`

// execute runs the root command with a fresh config rooted at a temp HOME.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky state shared between invocations
	cfg = nil
	runFile = ""
	insOutputPath = ""
	insGroupBy = ""
	insFrame.maxRows = 0
	for _, c := range []string{"output", "group-by"} {
		if fl := inspectCmd.Flags().Lookup(c); fl != nil {
			fl.Changed = false
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "OPENROUTER_API_KEY", "DATACHAT_GEMINI_API_KEY", "DATACHAT_API_KEY", "DATACHAT_DEFAULT_PROVIDER"} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCLI_InspectPrintsProfile(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)

	out, err := execute(t, "inspect", data, "--group-by", "Region")
	require.NoError(t, err)
	assert.Contains(t, out, "[DATASET SUMMARY]")
	assert.Contains(t, out, "Rows: 3")
	assert.Contains(t, out, "[GROUP-BY SUMMARY]")
}

func TestCLI_InspectWritesOutput(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)
	target := filepath.Join(home, "profile.md")

	out, err := execute(t, "inspect", data, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote profile of sales.csv (3, 2)")
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Amount")
}

func TestCLI_InspectWarnsWhenTruncated(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)

	out, err := execute(t, "inspect", data, "--max-rows", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "sales.csv truncated to 2 rows")
	assert.Contains(t, out, "Rows: 2")

	out, err = execute(t, "inspect", data)
	require.NoError(t, err)
	assert.NotContains(t, out, "truncated")
}

func TestCLI_InspectUnknownGroupColumn(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)

	_, err := execute(t, "inspect", data, "--group-by", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
}

func TestCLI_RunExtractsInsights(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)
	code := writeFile(t, home, "total.go", `fmt.Println("total", df.Col("Amount").Sum())
INSIGHT: total Amount is 6`)

	out, err := execute(t, "run", code, "--file", data)
	require.NoError(t, err)
	assert.Contains(t, out, "total 6")
	assert.Contains(t, out, "1 insight(s)")
	assert.Contains(t, out, "- total Amount is 6")
}

func TestCLI_RunReportsFailure(t *testing.T) {
	home := isolate(t)
	data := writeFile(t, home, "sales.csv", salesCSV)
	code := writeFile(t, home, "bad.go", `fmt.Println(undefinedThing)`)

	out, err := execute(t, "run", code, "--file", data)
	require.ErrorIs(t, err, errExecution)
	assert.Contains(t, out, "undefinedThing")
}

func TestCLI_RunRequiresDataset(t *testing.T) {
	home := isolate(t)
	code := writeFile(t, home, "x.go", `fmt.Println(1)`)

	_, err := execute(t, "run", code)
	require.Error(t, err)
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)

	_, err := execute(t, "config", "set", "sample_rows", "7")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "gemini_api_key", "AIzaSecretKey123")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "default_provider", "local")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".datachat", "config.yaml"))

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "sample_rows: 7")
	assert.Contains(t, out, "default_provider: ollama")
	assert.Contains(t, out, "gemini_api_key: AIz****123")
	assert.NotContains(t, out, "AIzaSecretKey123")
}

func TestCLI_ConfigSetRejectsBadInput(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "set", "default_provider", "skynet")
	assert.Error(t, err)
	_, err = execute(t, "config", "set", "not_a_key", "1")
	assert.Error(t, err)
}

func TestFrameFlags(t *testing.T) {
	opt, err := frameFlags{delimiter: "tab", decimal: "comma", thousands: "space", maxRows: 10}.options()
	require.NoError(t, err)
	assert.Equal(t, '\t', opt.Delimiter)
	assert.Equal(t, ',', opt.DecimalSeparator)
	assert.Equal(t, ' ', opt.ThousandsSeparator)
	assert.Equal(t, 10, opt.MaxRows)

	opt, err = frameFlags{sheet: "2"}.options()
	require.NoError(t, err)
	assert.Equal(t, 2, opt.SheetIndex)
	opt, err = frameFlags{sheet: "Sales"}.options()
	require.NoError(t, err)
	assert.Equal(t, "Sales", opt.Sheet)

	_, err = frameFlags{delimiter: "#"}.options()
	assert.Error(t, err)
	_, err = frameFlags{decimal: "x"}.options()
	assert.Error(t, err)
}

func TestBuildRuntimeProviders(t *testing.T) {
	isolate(t)
	c, err := loadedConfig()
	require.NoError(t, err)

	for in, want := range map[string]string{"": "gemini", "google": "gemini", "local": "ollama", "openrouter": "openrouter"} {
		c.DefaultProvider = in
		rt, name, err := buildRuntime(c)
		require.NoError(t, err, in)
		assert.NotNil(t, rt)
		assert.Equal(t, want, name)
	}
	c.DefaultProvider = "nope"
	_, _, err = buildRuntime(c)
	assert.Error(t, err)
	cfg = nil
}

func TestCLI_ModelsListsCatalog(t *testing.T) {
	isolate(t)
	modelsJSON = false

	out, err := execute(t, "models", "ollama")
	require.NoError(t, err)
	assert.Contains(t, out, "qwen2.5-coder:7b")
	assert.NotContains(t, out, "gemini-2.5-pro")
}
